package loader

import "fmt"

// FetchError reports that neither mirror produced a well-formed sponsors
// document. Both underlying causes are carried so callers can log which
// mirror failed and why.
type FetchError struct {
	PrimaryURL  string
	PrimaryErr  error
	FallbackURL string
	FallbackErr error
}

// Error returns the error message
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch sponsors from both mirrors: primary %s: %v; fallback %s: %v",
		e.PrimaryURL, e.PrimaryErr, e.FallbackURL, e.FallbackErr)
}

// Unwrap returns both underlying causes for errors.Is / errors.As chains.
func (e *FetchError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}
