package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/config"
	"github.com/aqlab/aqpipe/internal/observability"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aqpipe",
	Short: "Air-quality data pipeline",
	Long: `aqpipe cleans raw EPA ozone and NASA POWER meteorology exports into
monthly datasets, merges them with annual MODIS landcover, verifies the
merged dataset, clusters monitoring locations by their feature profiles,
and ingests the artifacts into Postgres.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(err)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg), nil
}
