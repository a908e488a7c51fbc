package commands

import (
	"errors"
	"math"

	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/mergeset"
	"github.com/aqlab/aqpipe/internal/printer"
	"github.com/aqlab/aqpipe/internal/verify"
)

var (
	verifyPath         string
	verifyRequiredCols []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a pipeline dataset",
	Long: `Verify a dataset produced by the pipeline.

Prints row and column info, per-column descriptive statistics, and a
correlation matrix over the numeric columns, then runs sanity checks:
the dataset has rows, required columns are present, dates parse, and
every numeric column carries at least one value. Exits non-zero when
any check fails.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyPath, "input", mergeset.DefaultOutputFile, "Dataset to verify")
	verifyCmd.Flags().StringSliceVar(&verifyRequiredCols, "require", verify.DefaultRequiredColumns, "Columns that must be present")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	report, err := verify.Verify(verifyPath, verifyRequiredCols, logger)
	if err != nil {
		return err
	}

	printer.Printf("%s: %d rows, %d columns %v\n\n", report.Path, report.Rows, len(report.Columns), report.Columns)

	printer.Step("column summaries")
	printer.Printf("%-16s %8s %12s %12s %12s %12s\n", "column", "count", "mean", "std", "min", "max")
	for _, s := range report.Summaries {
		printer.Printf("%-16s %8d %12.4f %12.4f %12.4f %12.4f\n", s.Name, s.Count, s.Mean, s.Std, s.Min, s.Max)
	}

	printCorrelations(report)

	printer.Step("checks")
	for _, c := range report.Checks {
		if c.Passed {
			printer.Pass(c.Name, c.Detail)
		} else {
			printer.Fail(c.Name, c.Detail)
		}
	}

	if !report.Passed() {
		return errors.New("verification failed")
	}
	printer.Success("all checks passed")
	return nil
}

func printCorrelations(report *verify.Report) {
	m := report.Correlations
	if m == nil || len(m.Columns) < 2 {
		return
	}

	printer.Step("correlations")
	printer.Printf("%-16s", "")
	for _, c := range m.Columns {
		printer.Printf(" %12s", c)
	}
	printer.Println()
	for i, row := range m.Values {
		printer.Printf("%-16s", m.Columns[i])
		for _, v := range row {
			if math.IsNaN(v) {
				printer.Printf(" %12s", "-")
			} else {
				printer.Printf(" %12.4f", v)
			}
		}
		printer.Println()
	}
	printer.Println()
}
