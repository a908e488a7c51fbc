package commands

import (
	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/cleanse"
	"github.com/aqlab/aqpipe/internal/mergeset"
	"github.com/aqlab/aqpipe/internal/printer"
)

var cleanPowerOut string

var cleanPowerCmd = &cobra.Command{
	Use:   "clean-power <raw-csv>",
	Short: "Clean a raw NASA POWER export into a monthly dataset",
	Long: `Clean a raw NASA POWER point export into a monthly dataset.

The free-text preamble is skipped, dates are built from the YEAR and DOY
columns, Kelvin temperatures are converted to Celsius, and daily values
are aggregated to monthly temperature means and precipitation totals.`,
	Args: cobra.ExactArgs(1),
	RunE: runCleanPower,
}

func init() {
	cleanPowerCmd.Flags().StringVar(&cleanPowerOut, "out", mergeset.DefaultPowerFile, "Output CSV path")
	rootCmd.AddCommand(cleanPowerCmd)
}

func runCleanPower(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	table, err := cleanse.CleanPower(args[0], logger)
	if err != nil {
		return err
	}

	if err := table.WriteCSV(cleanPowerOut); err != nil {
		return err
	}

	printer.Success("wrote %s (%d months, columns: %v)", cleanPowerOut, len(table.Dates), table.Columns)
	return nil
}
