package commands

import (
	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/mergeset"
	"github.com/aqlab/aqpipe/internal/printer"
)

var (
	mergeEPAPath      string
	mergePowerPath    string
	mergeLandcoverDir string
	mergeOut          string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the cleaned monthly datasets",
	Long: `Merge the cleaned EPA ozone and NASA POWER monthly datasets on Date,
keeping only overlapping months. A Year column is derived, and when an
annual landcover CSV is found it is joined on Year with IGBP class names
attached. The merge proceeds without landcover when no file is found.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeEPAPath, "epa", mergeset.DefaultEPAFile, "Cleaned EPA monthly CSV")
	mergeCmd.Flags().StringVar(&mergePowerPath, "power", mergeset.DefaultPowerFile, "Cleaned NASA POWER monthly CSV")
	mergeCmd.Flags().StringVar(&mergeLandcoverDir, "landcover-dir", ".", "Directory searched for annual landcover CSVs")
	mergeCmd.Flags().StringVar(&mergeOut, "out", mergeset.DefaultOutputFile, "Output CSV path")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	result, err := mergeset.Merge(mergeset.Options{
		EPAPath:      mergeEPAPath,
		PowerPath:    mergePowerPath,
		LandcoverDir: mergeLandcoverDir,
		OutPath:      mergeOut,
	}, logger)
	if err != nil {
		return err
	}

	if result.LandcoverFile == "" {
		printer.Warning("no landcover file found, merged without it")
	}
	printer.Success("wrote %s (%d rows, %d columns)", mergeOut, result.Rows, len(result.Columns))
	return nil
}
