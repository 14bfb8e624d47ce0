package refresh

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotatingartdev/ral-sponsors/pkg/loader"
	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

// stubSource scripts the loader results for the manager.
type stubSource struct {
	calls   atomic.Int32
	results []func() (*loader.Result, error)
}

func (s *stubSource) Load(_ context.Context, _ loader.Options) (*loader.Result, error) {
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.results) {
		n = len(s.results) - 1
	}
	return s.results[n]()
}

func okResult(hash string) func() (*loader.Result, error) {
	return func() (*loader.Result, error) {
		return &loader.Result{
			Dataset: &sponsors.Dataset{
				Version: 1,
				Tiers:   []sponsors.Tier{{ID: "t1", ParticleType: sponsors.ParticleNone}},
			},
			Source: loader.DefaultPrimaryURL,
			Hash:   hash,
		}, nil
	}
}

func failResult(err error) func() (*loader.Result, error) {
	return func() (*loader.Result, error) { return nil, err }
}

func TestRefreshSetsSnapshot(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){okResult("h1")}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	assert.Nil(t, m.Current(), "no snapshot before the first refresh")

	require.NoError(t, m.Refresh(context.Background()))

	snap := m.Current()
	require.NotNil(t, snap)
	assert.Equal(t, "h1", snap.Hash)
	assert.Equal(t, loader.DefaultPrimaryURL, snap.Source)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestRefreshKeepsLastKnownGoodOnFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){
		okResult("h1"),
		failResult(fmt.Errorf("mirror down")),
	}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	require.NoError(t, m.Refresh(context.Background()))
	before := m.Current()

	err := m.Refresh(context.Background())
	require.Error(t, err)

	after := m.Current()
	require.NotNil(t, after)
	assert.Equal(t, before.Hash, after.Hash, "failed refresh must not drop the snapshot")
	assert.Same(t, before.Dataset, after.Dataset)
}

func TestRefreshSwapsOnChangedHashOnly(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){
		okResult("h1"),
		okResult("h1"),
		okResult("h2"),
	}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	require.NoError(t, m.Refresh(context.Background()))
	first := m.Current().Dataset

	require.NoError(t, m.Refresh(context.Background()))
	assert.Same(t, first, m.Current().Dataset, "unchanged content keeps the snapshot")

	require.NoError(t, m.Refresh(context.Background()))
	assert.NotSame(t, first, m.Current().Dataset)
	assert.Equal(t, "h2", m.Current().Hash)
}

func TestRefreshNeverMutatesPublishedSnapshot(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){
		okResult("h1"),
		okResult("h1"),
	}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	require.NoError(t, m.Refresh(context.Background()))
	held := m.Current()
	fetchedAt := held.FetchedAt

	// Callers read handed-out snapshots without holding the manager's lock,
	// so a refresh must not write through the shared pointer even when the
	// content hash is unchanged. The race detector flags any violation here.
	stop := make(chan struct{})
	read := make(chan time.Time, 1)
	go func() {
		last := held.FetchedAt
		for {
			select {
			case <-stop:
				read <- last
				return
			default:
				last = held.FetchedAt
			}
		}
	}()

	require.NoError(t, m.Refresh(context.Background()))
	close(stop)

	assert.Equal(t, fetchedAt, <-read)
	assert.Equal(t, fetchedAt, held.FetchedAt, "handed-out snapshot must stay frozen")

	fresh := m.Current()
	assert.NotSame(t, held, fresh, "unchanged content installs a new snapshot")
	assert.Same(t, held.Dataset, fresh.Dataset)
	assert.True(t, fresh.FetchedAt.After(fetchedAt) || fresh.FetchedAt.Equal(fetchedAt))
}

func TestRefreshDoesNotRetryValidationErrors(t *testing.T) {
	t.Parallel()

	verr := sponsors.NewValidationError(sponsors.InvalidEnum, "tiers[0].particleType")
	src := &stubSource{results: []func() (*loader.Result, error){failResult(verr)}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	err := m.Refresh(context.Background())
	require.Error(t, err)

	var gotVerr *sponsors.ValidationError
	assert.ErrorAs(t, err, &gotVerr)
	assert.Equal(t, int32(1), src.calls.Load(), "schema violations will not heal on retry")
	assert.Nil(t, m.Current())
}

func TestRefreshRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){
		failResult(fmt.Errorf("transient")),
		okResult("h1"),
	}}
	m := NewManager(src, loader.Options{}, time.Hour, nil)

	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, int32(2), src.calls.Load())
	require.NotNil(t, m.Current())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: []func() (*loader.Result, error){okResult("h1")}}
	m := NewManager(src, loader.Options{}, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Current() != nil },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
