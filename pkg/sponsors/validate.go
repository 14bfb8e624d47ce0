package sponsors

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "sponsors.schema.json"

var (
	compileOnce   sync.Once
	compiled      *jsonschema.Schema
	compileFailed error
)

// compiledSchema compiles the embedded sponsors schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileFailed = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileFailed = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiled, compileFailed = compiler.Compile(schemaURL)
	})
	return compiled, compileFailed
}

// Validate checks raw JSON data against the sponsors schema and returns the
// parsed dataset. Validation is all-or-nothing: on any schema or integrity
// violation the returned error is a *ValidationError and no dataset is
// returned. Data that is not well-formed JSON fails with a plain error so
// callers can tell transport-level garbage apart from schema violations.
func Validate(data []byte) (*Dataset, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sponsors document: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, classifySchemaError(ve)
		}
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse sponsors document: %w", err)
	}

	if err := checkIntegrity(&ds); err != nil {
		return nil, err
	}

	return &ds, nil
}

// checkIntegrity enforces the document invariants the schema cannot express:
// unique IDs, resolvable tier references, and numeric ranges.
func checkIntegrity(ds *Dataset) error {
	if ds.Version < 1 {
		return NewValidationError(FormatMismatch, "version")
	}

	tierIDs := make(map[string]struct{}, len(ds.Tiers))
	for i, tier := range ds.Tiers {
		if _, dup := tierIDs[tier.ID]; dup {
			return NewValidationError(DuplicateKey, fmt.Sprintf("tiers[%d].id", i))
		}
		tierIDs[tier.ID] = struct{}{}

		if tier.MinAmount < 0 {
			return NewValidationError(FormatMismatch, fmt.Sprintf("tiers[%d].minAmount", i))
		}
	}

	sponsorIDs := make(map[string]struct{}, len(ds.Sponsors))
	for i, sponsor := range ds.Sponsors {
		if _, dup := sponsorIDs[sponsor.ID]; dup {
			return NewValidationError(DuplicateKey, fmt.Sprintf("sponsors[%d].id", i))
		}
		sponsorIDs[sponsor.ID] = struct{}{}

		if _, ok := tierIDs[sponsor.Tier]; !ok {
			return NewValidationError(DanglingReference, sponsor.ID)
		}
	}

	return nil
}

// classifySchemaError maps the first leaf cause of a jsonschema validation
// error onto the sponsors error taxonomy.
func classifySchemaError(ve *jsonschema.ValidationError) error {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	path := instancePath(leaf.InstanceLocation)

	switch k := leaf.ErrorKind.(type) {
	case *kind.Required:
		field := ""
		if len(k.Missing) > 0 {
			field = k.Missing[0]
		}
		return NewValidationError(MissingField, joinPath(path, field))
	case *kind.Type:
		return NewValidationError(TypeMismatch, path)
	case *kind.Enum:
		return NewValidationError(InvalidEnum, path)
	case *kind.Pattern:
		return NewValidationError(FormatMismatch, path)
	case *kind.MinItems:
		// An empty tiers array means the document carries no tiers at all.
		return NewValidationError(MissingField, path)
	default:
		return NewValidationError(TypeMismatch, path)
	}
}

// instancePath renders a jsonschema instance location as a dotted field path
// with bracketed array indexes, e.g. ["tiers","0","color"] becomes
// "tiers[0].color".
func instancePath(location []string) string {
	var b strings.Builder
	for _, token := range location {
		if _, err := strconv.Atoi(token); err == nil {
			b.WriteString("[")
			b.WriteString(token)
			b.WriteString("]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(token)
	}
	return b.String()
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	if field == "" {
		return path
	}
	return path + "." + field
}
