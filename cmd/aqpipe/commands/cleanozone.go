package commands

import (
	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/cleanse"
	"github.com/aqlab/aqpipe/internal/mergeset"
	"github.com/aqlab/aqpipe/internal/printer"
)

var cleanOzoneOut string

var cleanOzoneCmd = &cobra.Command{
	Use:   "clean-ozone <raw-csv> [raw-csv...]",
	Short: "Clean raw EPA ozone exports into a monthly dataset",
	Long: `Clean one or more raw EPA ozone CSV exports into a single monthly dataset.

Each file's date, ozone, and unit columns are auto-detected, readings are
converted to µg/m³, and everything is aggregated to monthly means. Files
that cannot be parsed are skipped with a warning; the command fails only
when no file parses.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCleanOzone,
}

func init() {
	cleanOzoneCmd.Flags().StringVar(&cleanOzoneOut, "out", mergeset.DefaultEPAFile, "Output CSV path")
	rootCmd.AddCommand(cleanOzoneCmd)
}

func runCleanOzone(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	result, err := cleanse.CleanOzone(args, logger)
	if err != nil {
		return err
	}

	if err := cleanse.WriteMonthlyCSV(cleanOzoneOut, cleanse.OzoneColumn, result.Rows); err != nil {
		return err
	}

	for _, w := range result.Warnings {
		printer.Warning("skipped %s: %s", w.File, w.Reason)
	}
	printer.Success("wrote %s (%d months from %d files)", cleanOzoneOut, len(result.Rows), result.FilesParsed)
	return nil
}
