// Package loader fetches the sponsors document from the primary mirror with
// deterministic fallback to the secondary mirror, validates it, and returns
// the typed dataset together with the mirror that served it.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotatingartdev/ral-sponsors/pkg/httpclient"
	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

// Known mirror URLs for the published sponsors document.
const (
	// DefaultPrimaryURL is the canonical GitHub raw URL
	DefaultPrimaryURL = "https://raw.githubusercontent.com/RotatingArtDev/RAL-Sponsors/main/sponsors.json"

	// DefaultFallbackURL is the Gitee mirror used when GitHub is unreachable
	DefaultFallbackURL = "https://gitee.com/daohei/RAL-Sponsors/raw/main/sponsors.json"
)

// Options configures a single load operation. Zero values fall back to the
// published mirror URLs and the transport's default timeout.
type Options struct {
	// PrimaryURL is tried first.
	PrimaryURL string

	// FallbackURL is tried when the primary fetch fails or returns data
	// that is not well-formed JSON.
	FallbackURL string

	// Timeout bounds each mirror attempt individually.
	Timeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.PrimaryURL == "" {
		o.PrimaryURL = DefaultPrimaryURL
	}
	if o.FallbackURL == "" {
		o.FallbackURL = DefaultFallbackURL
	}
	if o.Timeout <= 0 {
		o.Timeout = httpclient.DefaultTimeout
	}
}

// Result is the outcome of a successful load.
type Result struct {
	// Dataset is the validated sponsors document. Treat it as read-only;
	// a later load replaces the whole snapshot.
	Dataset *sponsors.Dataset

	// Source is the mirror URL that actually served the data, so callers
	// can surface which mirror responded.
	Source string

	// Hash is the SHA256 hash of the raw document for change detection.
	Hash string
}

// Loader performs fetch-validate-return against the sponsor mirrors. It
// keeps no state between calls beyond the underlying HTTP client.
type Loader struct {
	client httpclient.Client
}

// New creates a loader using the given HTTP client.
func New(client httpclient.Client) *Loader {
	return &Loader{client: client}
}

// Load is a convenience wrapper that performs a single load with a default
// HTTP client bounded by opts.Timeout.
func Load(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()
	return New(httpclient.NewDefaultClient(opts.Timeout)).Load(ctx, opts)
}

// Load fetches the sponsors document, trying the primary mirror first and
// the fallback mirror on any fetch or JSON parse failure. A document that is
// well-formed JSON but violates the schema fails the whole load with a
// *sponsors.ValidationError; a partially valid dataset is never returned.
func (l *Loader) Load(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()

	data, primaryErr := l.fetch(ctx, opts.PrimaryURL, opts.Timeout)
	source := opts.PrimaryURL

	if primaryErr != nil {
		var fallbackErr error
		data, fallbackErr = l.fetch(ctx, opts.FallbackURL, opts.Timeout)
		if fallbackErr != nil {
			return nil, &FetchError{
				PrimaryURL:  opts.PrimaryURL,
				PrimaryErr:  primaryErr,
				FallbackURL: opts.FallbackURL,
				FallbackErr: fallbackErr,
			}
		}
		source = opts.FallbackURL
	}

	ds, err := sponsors.Validate(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Dataset: ds,
		Source:  source,
		Hash:    fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// fetch retrieves one mirror under its own timeout and rejects bodies that
// are not well-formed JSON, so the caller can move on to the next mirror.
func (l *Loader) fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := l.client.Get(attemptCtx, url)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("response from %s is not well-formed JSON", url)
	}

	return data, nil
}
