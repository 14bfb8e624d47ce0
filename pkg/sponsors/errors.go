package sponsors

import "fmt"

// ValidationKind classifies why a sponsors document was rejected.
type ValidationKind string

// The possible classifications for a rejected document.
const (
	// MissingField indicates a required field is absent.
	MissingField ValidationKind = "missing_field"

	// TypeMismatch indicates a field holds the wrong primitive type.
	TypeMismatch ValidationKind = "type_mismatch"

	// InvalidEnum indicates a particleType outside the known set.
	InvalidEnum ValidationKind = "invalid_enum"

	// DuplicateKey indicates a repeated tier or sponsor ID.
	DuplicateKey ValidationKind = "duplicate_key"

	// DanglingReference indicates a sponsor pointing at a tier that
	// does not exist in the same document.
	DanglingReference ValidationKind = "dangling_reference"

	// FormatMismatch indicates a value that fails its expected pattern,
	// such as a malformed color or join date.
	FormatMismatch ValidationKind = "format_mismatch"
)

// ValidationError reports a well-formed JSON document that violates the
// sponsors schema. Path is the offending field path (e.g.
// "tiers[0].particleType"), or the record ID for dangling references.
type ValidationError struct {
	Kind ValidationKind
	Path string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sponsors document: %s at %s", e.Kind, e.Path)
}

// NewValidationError creates a new validation error.
func NewValidationError(kind ValidationKind, path string) error {
	return &ValidationError{Kind: kind, Path: path}
}
