package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a local sponsors.json against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(_ *cobra.Command, args []string) error {
	path := args[0]

	// #nosec G304 -- the path comes from the CLI invocation
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ds, err := sponsors.Validate(data)
	if err != nil {
		var verr *sponsors.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: %s at %s", path, verr.Kind, verr.Path)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("%s is valid: %d tiers, %d sponsors\n", path, len(ds.Tiers), len(ds.Sponsors))
	return nil
}
