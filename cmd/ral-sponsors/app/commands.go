// Package app provides the commands of the ral-sponsors CLI.
package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rotatingartdev/ral-sponsors/internal/config"
	"github.com/rotatingartdev/ral-sponsors/internal/versions"
)

// logger is initialized once in the root PersistentPreRunE and shared by all
// subcommands.
var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:               "ral-sponsors",
	DisableAutoGenTag: true,
	Short:             "RotatingArt Launcher sponsor data tooling",
	Long: `ral-sponsors fetches, validates, and regenerates the sponsors.json
document consumed by the RotatingArt Launcher.

The document is served from a primary GitHub raw URL with a Gitee mirror as
fallback; every command validates it against the published schema before
using it.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		zapCfg := zap.NewProductionConfig()
		if viper.GetBool("debug") {
			zapCfg = zap.NewDevelopmentConfig()
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// Keep stdout clean for commands that print documents.
		zapCfg.OutputPaths = []string{"stderr"}

		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		_ = cmd.Help()
	},
}

// NewRootCmd creates the root command of the ral-sponsors CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML)")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding debug flag: %v\n", err)
	}
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding config flag: %v\n", err)
	}

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig returns the configuration from --config, or the published
// defaults when no config file is given.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(config.WithConfigPath(path))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format version info: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		fmt.Printf("ral-sponsors %s (commit %s, built %s, %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
