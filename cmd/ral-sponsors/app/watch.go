package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotatingartdev/ral-sponsors/pkg/httpclient"
	"github.com/rotatingartdev/ral-sponsors/pkg/loader"
	"github.com/rotatingartdev/ral-sponsors/pkg/refresh"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically refresh the sponsors document in the foreground",
	Long: `Run the refresh loop the launcher uses: fetch the document immediately,
then re-fetch on every interval tick, keeping the last-known-good snapshot
when a refresh fails. Stops on SIGINT/SIGTERM.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "Refresh interval (default: refreshInterval from config, or 6h)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	interval := cfg.GetRefreshInterval()
	if v, _ := cmd.Flags().GetDuration("interval"); v > 0 {
		interval = v
	}

	opts := loader.Options{
		PrimaryURL:  cfg.GetPrimaryURL(),
		FallbackURL: cfg.GetFallbackURL(),
		Timeout:     cfg.GetFetchTimeout(),
	}

	src := loader.New(httpclient.NewDefaultClient(opts.Timeout))
	manager := refresh.NewManager(src, opts, interval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching sponsors document",
		zap.String("primary", opts.PrimaryURL),
		zap.Duration("interval", interval),
	)

	if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if snap := manager.Current(); snap != nil {
		logger.Info("shutting down",
			zap.String("source", snap.Source),
			zap.Time("fetchedAt", snap.FetchedAt),
			zap.Duration("age", time.Since(snap.FetchedAt)),
		)
	}
	return nil
}
