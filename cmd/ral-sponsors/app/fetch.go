package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotatingartdev/ral-sponsors/pkg/loader"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and validate the sponsors document from the mirrors",
	Long: `Fetch the sponsors document from the primary mirror, falling back to the
secondary mirror on failure, validate it, and print a summary. With --output
the validated document is written to a file.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("primary", "", "Primary mirror URL (default: published GitHub raw URL)")
	fetchCmd.Flags().String("fallback", "", "Fallback mirror URL (default: published Gitee mirror)")
	fetchCmd.Flags().Duration("timeout", 0, "Per-mirror fetch timeout (default: 10s)")
	fetchCmd.Flags().String("output", "", "Write the validated document to this file")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := loader.Options{
		PrimaryURL:  cfg.GetPrimaryURL(),
		FallbackURL: cfg.GetFallbackURL(),
		Timeout:     cfg.GetFetchTimeout(),
	}
	if v, _ := cmd.Flags().GetString("primary"); v != "" {
		opts.PrimaryURL = v
	}
	if v, _ := cmd.Flags().GetString("fallback"); v != "" {
		opts.FallbackURL = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		opts.Timeout = v
	}

	logger.Info("fetching sponsors document",
		zap.String("primary", opts.PrimaryURL),
		zap.String("fallback", opts.FallbackURL),
	)

	start := time.Now()
	result, err := loader.Load(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	logger.Info("sponsors document loaded",
		zap.String("source", result.Source),
		zap.String("hash", result.Hash),
		zap.Duration("elapsed", time.Since(start)),
	)

	printSummary(result)

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := writeDataset(output, result); err != nil {
			return err
		}
		logger.Info("document written", zap.String("path", output))
	}

	return nil
}

// printSummary prints the tier breakdown, highest tier first.
func printSummary(result *loader.Result) {
	ds := result.Dataset
	fmt.Printf("%s (version %d, updated %s)\n", ds.Name, ds.Version, ds.LastUpdated)
	fmt.Printf("served from %s\n", result.Source)
	fmt.Printf("%d tiers, %d sponsors\n", len(ds.Tiers), len(ds.Sponsors))
	for _, tier := range ds.TiersByOrder() {
		count := len(ds.SponsorsInTier(tier.ID))
		if count == 0 {
			continue
		}
		fmt.Printf("  %-20s %s: %d\n", tier.ID, tier.NameEn, count)
	}
}

func writeDataset(path string, result *loader.Result) error {
	data, err := json.MarshalIndent(result.Dataset, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
