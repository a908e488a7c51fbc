package mergeset

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/aqlab/aqpipe/internal/cleanse"
)

// Default artifact names shared with the cleaning commands.
const (
	DefaultEPAFile    = "Cleaned_EPA_O3_Monthly.csv"
	DefaultPowerFile  = "Cleaned_NASA_POWER_Monthly.csv"
	DefaultOutputFile = "Merged_Dataset.csv"
)

// Options locates the cleaned inputs and the merged output.
type Options struct {
	EPAPath      string
	PowerPath    string
	LandcoverDir string
	OutPath      string
}

// Result summarizes a merge run. LandcoverFile is empty when no annual
// landcover CSV was found; the merge still succeeds without one.
type Result struct {
	Rows          int
	Columns       []string
	LandcoverFile string
}

// Merge inner-joins the cleaned EPA and NASA POWER monthly datasets on Date,
// derives a Year column, left-joins an annual landcover table when one can be
// found, and writes the merged dataset.
func Merge(opts Options, logger *slog.Logger) (*Result, error) {
	epa, err := loadDated(opts.EPAPath)
	if err != nil {
		return nil, fmt.Errorf("load EPA dataset: %w", err)
	}
	logger.Info("loaded EPA dataset", "path", opts.EPAPath, "rows", epa.Nrow(), "columns", epa.Names())

	power, err := loadDated(opts.PowerPath)
	if err != nil {
		return nil, fmt.Errorf("load NASA POWER dataset: %w", err)
	}
	logger.Info("loaded NASA POWER dataset", "path", opts.PowerPath, "rows", power.Nrow(), "columns", power.Names())

	merged := epa.InnerJoin(power, "Date")
	if merged.Error() != nil {
		return nil, fmt.Errorf("join on Date: %w", merged.Error())
	}
	logger.Info("joined EPA and NASA POWER", "rows", merged.Nrow())

	merged, err = withYearColumn(merged)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if lcPath, ok := FindLandcover(opts.LandcoverDir); ok {
		lc, err := LoadLandcover(lcPath)
		if err != nil {
			logger.Warn("landcover file unreadable, proceeding without it", "path", lcPath, "error", err)
		} else {
			merged = merged.LeftJoin(lc, "Year")
			if merged.Error() != nil {
				return nil, fmt.Errorf("join landcover on Year: %w", merged.Error())
			}
			result.LandcoverFile = lcPath
			logger.Info("joined annual landcover", "path", lcPath, "rows", merged.Nrow())
		}
	} else {
		logger.Warn("no landcover file found, proceeding without it", "dir", opts.LandcoverDir)
	}

	f, err := os.Create(opts.OutPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.OutPath, err)
	}
	defer f.Close()
	if err := merged.WriteCSV(f); err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.OutPath, err)
	}

	result.Rows = merged.Nrow()
	result.Columns = merged.Names()
	logger.Info("wrote merged dataset", "path", opts.OutPath, "rows", result.Rows)
	return result, nil
}

// loadDated reads a CSV with a Date column, drops rows whose dates do not
// parse, and sorts by Date.
func loadDated(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Error() != nil {
		return df, df.Error()
	}

	dateIdx := -1
	for i, name := range df.Names() {
		if name == "Date" {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return df, fmt.Errorf("no Date column in %s, found: %v", path, df.Names())
	}

	dates := df.Col("Date").Records()
	keep := make([]int, 0, len(dates))
	for i, d := range dates {
		if _, ok := cleanse.ParseDate(d); ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return df, fmt.Errorf("no parseable dates in %s", path)
	}
	df = df.Subset(keep)
	if df.Error() != nil {
		return df, df.Error()
	}

	df = df.Arrange(dataframe.Sort("Date"))
	return df, df.Error()
}

// withYearColumn derives an integer Year column from the Date column.
func withYearColumn(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	dates := df.Col("Date").Records()
	years := make([]int, len(dates))
	for i, d := range dates {
		t, ok := cleanse.ParseDate(d)
		if !ok {
			return df, fmt.Errorf("unparseable date after join: %q", d)
		}
		years[i] = t.Year()
	}
	df = df.Mutate(series.New(years, series.Int, "Year"))
	return df, df.Error()
}
