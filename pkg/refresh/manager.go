// Package refresh layers a caching window on top of the loader: it holds the
// last successfully fetched dataset and replaces it wholesale on a periodic
// schedule, keeping the last-known-good snapshot when a refresh fails.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rotatingartdev/ral-sponsors/pkg/loader"
	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

const (
	// DefaultInterval is how often the dataset is re-fetched.
	DefaultInterval = 6 * time.Hour

	// defaultMaxTries bounds the backoff retries within one refresh cycle.
	defaultMaxTries = 3
)

// Source abstracts the loader for testing.
type Source interface {
	Load(ctx context.Context, opts loader.Options) (*loader.Result, error)
}

// Snapshot is the dataset the manager currently holds, along with where and
// when it came from.
type Snapshot struct {
	Dataset   *sponsors.Dataset
	Source    string
	Hash      string
	FetchedAt time.Time
}

// Manager periodically refreshes the sponsors dataset. Concurrent Refresh
// calls are collapsed into a single in-flight load.
type Manager struct {
	source   Source
	opts     loader.Options
	interval time.Duration
	maxTries uint
	logger   *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewManager creates a refresh manager. A zero interval falls back to
// DefaultInterval; a nil logger falls back to zap.NewNop().
func NewManager(source Source, opts loader.Options, interval time.Duration, logger *zap.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		source:   source,
		opts:     opts,
		interval: interval,
		maxTries: defaultMaxTries,
		logger:   logger,
	}
}

// Current returns the current snapshot, or nil before the first successful
// refresh. The returned snapshot is read-only.
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Refresh performs one load cycle, retrying transient fetch failures with
// exponential backoff. On success the held snapshot is replaced wholesale;
// on failure the prior snapshot is kept and the error returned. Concurrent
// callers share a single load.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	operation := func() (*loader.Result, error) {
		result, err := m.source.Load(ctx, m.opts)
		if err != nil {
			// A schema violation will not heal on retry within this
			// cycle; only the mirrors changing content can fix it.
			var verr *sponsors.ValidationError
			if errors.As(err, &verr) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return result, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(m.maxTries),
	)
	if err != nil {
		m.logger.Warn("sponsor refresh failed, keeping previous snapshot", zap.Error(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Snapshots handed out by Current are read-only; install a fresh one
	// instead of writing through the shared pointer.
	if m.snapshot != nil && m.snapshot.Hash == result.Hash {
		m.logger.Debug("sponsor data unchanged", zap.String("hash", result.Hash))
		m.snapshot = &Snapshot{
			Dataset:   m.snapshot.Dataset,
			Source:    m.snapshot.Source,
			Hash:      m.snapshot.Hash,
			FetchedAt: time.Now(),
		}
		return nil
	}

	m.snapshot = &Snapshot{
		Dataset:   result.Dataset,
		Source:    result.Source,
		Hash:      result.Hash,
		FetchedAt: time.Now(),
	}
	m.logger.Info("sponsor data refreshed",
		zap.String("source", result.Source),
		zap.String("hash", result.Hash),
		zap.Int("tiers", len(result.Dataset.Tiers)),
		zap.Int("sponsors", len(result.Dataset.Sponsors)),
	)
	return nil
}

// Run refreshes immediately and then on every interval tick until the
// context is cancelled. Failed cycles are logged and the loop continues with
// the last-known-good snapshot.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Refresh(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
