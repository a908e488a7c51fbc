package verify

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"

	"github.com/aqlab/aqpipe/internal/cleanse"
)

// DefaultRequiredColumns are the columns a merged dataset must carry.
var DefaultRequiredColumns = []string{"Date", "O3_ug_m3"}

// ColumnSummary holds descriptive statistics for one numeric column.
// Count excludes missing and non-numeric cells.
type ColumnSummary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// Check is one named pass/fail verification with a human-readable detail.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// CorrelationMatrix is a symmetric matrix over the named columns. Entries
// are NaN when a pair has fewer than two complete observations.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Report is the outcome of verifying one dataset.
type Report struct {
	Path         string
	Rows         int
	Columns      []string
	Summaries    []ColumnSummary
	Correlations *CorrelationMatrix
	Checks       []Check
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Verify loads a dataset and runs descriptive statistics plus a fixed set of
// sanity checks against it. A failing check is recorded in the report, not
// returned as an error; errors mean the dataset could not be inspected at all.
func Verify(path string, requiredCols []string, logger *slog.Logger) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Error() != nil {
		return nil, fmt.Errorf("read %s: %w", path, df.Error())
	}

	report := &Report{
		Path:    path,
		Rows:    df.Nrow(),
		Columns: df.Names(),
	}
	logger.Info("loaded dataset", "path", path, "rows", report.Rows, "columns", report.Columns)

	numeric := map[string][]float64{}
	var numericCols []string
	for _, name := range df.Names() {
		values, ok := numericColumn(df, name)
		if !ok {
			continue
		}
		numeric[name] = values
		numericCols = append(numericCols, name)
		report.Summaries = append(report.Summaries, summarize(name, values))
	}

	report.Correlations = correlate(numericCols, numeric)
	report.Checks = runChecks(df, requiredCols, numeric, numericCols)

	logger.Info("verification complete", "path", path, "passed", report.Passed())
	return report, nil
}

func runChecks(df dataframe.DataFrame, requiredCols []string, numeric map[string][]float64, numericCols []string) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:   "dataset has rows",
		Passed: df.Nrow() > 0,
		Detail: fmt.Sprintf("%d rows", df.Nrow()),
	})

	for _, col := range requiredCols {
		found := ""
		for _, name := range df.Names() {
			if strings.EqualFold(name, col) {
				found = name
				break
			}
		}
		checks = append(checks, Check{
			Name:   fmt.Sprintf("column %s present", col),
			Passed: found != "",
			Detail: presenceDetail(found),
		})
	}

	checks = append(checks, dateCheck(df))

	for _, name := range numericCols {
		count := 0
		for _, v := range numeric[name] {
			if !math.IsNaN(v) {
				count++
			}
		}
		checks = append(checks, Check{
			Name:   fmt.Sprintf("column %s has values", name),
			Passed: count > 0,
			Detail: fmt.Sprintf("%d of %d numeric", count, len(numeric[name])),
		})
	}

	return checks
}

func presenceDetail(found string) string {
	if found == "" {
		return "missing"
	}
	return "found as " + found
}

func dateCheck(df dataframe.DataFrame) Check {
	dateCol := ""
	for _, name := range df.Names() {
		if strings.EqualFold(name, "Date") {
			dateCol = name
			break
		}
	}
	if dateCol == "" {
		return Check{Name: "dates parseable", Passed: false, Detail: "no Date column"}
	}

	records := df.Col(dateCol).Records()
	bad := 0
	for _, s := range records {
		if _, ok := cleanse.ParseDate(s); !ok {
			bad++
		}
	}
	return Check{
		Name:   "dates parseable",
		Passed: bad == 0,
		Detail: fmt.Sprintf("%d of %d unparseable", bad, len(records)),
	}
}

// numericColumn extracts a column as floats, with NaN for non-numeric cells.
// A column counts as numeric when at least one cell parses.
func numericColumn(df dataframe.DataFrame, name string) ([]float64, bool) {
	records := df.Col(name).Records()
	values := make([]float64, len(records))
	any := false
	for i, s := range records {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			values[i] = math.NaN()
			continue
		}
		values[i] = v
		any = true
	}
	return values, any
}

func summarize(name string, values []float64) ColumnSummary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	s := ColumnSummary{Name: name, Count: len(clean)}
	if len(clean) == 0 {
		s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}

	s.Mean, s.Std = stat.MeanStdDev(clean, nil)
	if len(clean) == 1 {
		s.Std = 0
	}
	s.Min, s.Max = clean[0], clean[0]
	for _, v := range clean[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

// correlate computes pairwise Pearson correlations over complete observations.
func correlate(cols []string, numeric map[string][]float64) *CorrelationMatrix {
	m := &CorrelationMatrix{Columns: cols}
	m.Values = make([][]float64, len(cols))
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
		for j := range cols {
			if i == j {
				m.Values[i][j] = 1
				continue
			}
			m.Values[i][j] = pairCorrelation(numeric[cols[i]], numeric[cols[j]])
		}
	}
	return m
}

func pairCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
