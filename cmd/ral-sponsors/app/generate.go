package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotatingartdev/ral-sponsors/internal/afdian"
	"github.com/rotatingartdev/ral-sponsors/pkg/httpclient"
	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate sponsors.json from Afdian",
	Long: `Regenerate the sponsors document either from an Afdian transaction CSV
export (--csv) or from the Afdian open API using the credentials in the
configuration file. The generated document is validated before it is
written.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("csv", "", "Path to an Afdian transaction CSV export")
	generateCmd.Flags().String("output", "", "Output path (default: outputPath from config, or sponsors.json)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	csvPath, _ := cmd.Flags().GetString("csv")

	var records []afdian.Record
	if csvPath != "" {
		records, err = afdian.ImportCSV(csvPath)
		if err != nil {
			return fmt.Errorf("CSV import failed: %w", err)
		}
		logger.Info("imported transaction CSV",
			zap.String("path", csvPath),
			zap.Int("sponsors", len(records)),
		)
	} else {
		if cfg.Afdian == nil {
			return fmt.Errorf("either --csv or an afdian section in the configuration is required")
		}
		token, err := cfg.Afdian.GetToken()
		if err != nil {
			return err
		}

		client := afdian.NewClient(
			httpclient.NewDefaultClient(cfg.GetFetchTimeout()),
			"", cfg.Afdian.UserID, token,
		)
		records, err = client.FetchSponsors(context.Background())
		if err != nil {
			return fmt.Errorf("Afdian API fetch failed: %w", err)
		}
		logger.Info("fetched sponsors from Afdian API", zap.Int("sponsors", len(records)))
	}

	if len(records) == 0 {
		return fmt.Errorf("no sponsor records found")
	}

	ds, err := afdian.BuildDataset(records, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build dataset: %w", err)
	}

	data, err := json.MarshalIndent(ds, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	// The generator must never publish a document the launcher would reject.
	if _, err := sponsors.Validate(data); err != nil {
		return fmt.Errorf("generated document failed validation: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.OutputPath
	}
	if output == "" {
		output = "sponsors.json"
	}

	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	logger.Info("sponsors document generated",
		zap.String("path", output),
		zap.Int("tiers", len(ds.Tiers)),
		zap.Int("sponsors", len(ds.Sponsors)),
	)
	return nil
}
