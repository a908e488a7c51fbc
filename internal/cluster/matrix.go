package cluster

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/aqlab/aqpipe/internal/frame"
	"gonum.org/v1/gonum/mat"
)

// FallbackValueColumn is the canonical name given to the single aggregated
// column when no explicit feature columns are in play.
const FallbackValueColumn = "value"

// Matrix is the per-location feature matrix: one row per distinct location,
// aggregated by column-wise mean. Locations are sorted so that downstream
// seeded algorithms see a stable row order.
type Matrix struct {
	Locations []string
	Columns   []string
	Data      *mat.Dense
}

// NumLocations returns the row count.
func (m *Matrix) NumLocations() int {
	return len(m.Locations)
}

// BuildOptions selects the columns used to assemble the matrix.
type BuildOptions struct {
	ValueCol    string
	DateCol     string
	LocationCol string
	// FeatureCols, when non-empty, overrides ValueCol. Entries that fail to
	// resolve are dropped with a warning.
	FeatureCols []string
}

// BuildMatrix aggregates the feature table into the per-location matrix.
// ValueCol, DateCol, and LocationCol are required and resolved
// case-insensitively; an unresolvable one fails the build.
func BuildMatrix(tbl *frame.Table, opts BuildOptions, logger *slog.Logger) (*Matrix, error) {
	locCol, err := tbl.Resolve(opts.LocationCol)
	if err != nil {
		return nil, err
	}
	dateCol, err := tbl.Resolve(opts.DateCol)
	if err != nil {
		return nil, err
	}
	valueCol, err := tbl.Resolve(opts.ValueCol)
	if err != nil {
		return nil, err
	}

	coerceDates(tbl, dateCol, logger)

	var featureCols []string
	for _, c := range opts.FeatureCols {
		actual, err := tbl.Resolve(c)
		if err != nil {
			logger.Warn("feature column not found, skipping it", "column", c)
			continue
		}
		featureCols = append(featureCols, actual)
	}

	columns := featureCols
	renamed := false
	if len(columns) == 0 {
		columns = []string{valueCol}
		renamed = true
	}

	locations := tbl.Strings(locCol)
	values := make([][]float64, len(columns))
	for j, c := range columns {
		values[j] = tbl.Floats(c)
	}

	m := aggregateMeans(locations, columns, values)
	if renamed {
		m.Columns = []string{FallbackValueColumn}
	}

	logger.Info("prepared per-location matrix",
		"n_locations", len(m.Locations),
		"columns", m.Columns,
	)
	return m, nil
}

// aggregateMeans computes the column-wise mean per location, skipping values
// that did not parse as numbers. A location whose values are all missing for
// a column gets NaN there.
func aggregateMeans(locations, columns []string, values [][]float64) *Matrix {
	type acc struct {
		sum   []float64
		count []int
	}
	groups := make(map[string]*acc)
	for i, loc := range locations {
		g, ok := groups[loc]
		if !ok {
			g = &acc{sum: make([]float64, len(columns)), count: make([]int, len(columns))}
			groups[loc] = g
		}
		for j := range columns {
			v := values[j][i]
			if math.IsNaN(v) {
				continue
			}
			g.sum[j] += v
			g.count[j]++
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := mat.NewDense(len(keys), len(columns), nil)
	for i, loc := range keys {
		g := groups[loc]
		for j := range columns {
			if g.count[j] == 0 {
				data.Set(i, j, math.NaN())
				continue
			}
			data.Set(i, j, g.sum[j]/float64(g.count[j]))
		}
	}

	return &Matrix{Locations: keys, Columns: columns, Data: data}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006-01",
}

// coerceDates attempts to parse the date column, logging how many values did
// not parse. The timestamps take no part in clustering; this mirrors the type
// coercion the table would receive before other analyses.
func coerceDates(tbl *frame.Table, dateCol string, logger *slog.Logger) {
	records := tbl.Strings(dateCol)
	invalid := 0
	for _, r := range records {
		if _, ok := parseDate(r); !ok {
			invalid++
		}
	}
	if invalid > 0 {
		logger.Warn("date values failed to parse", "column", dateCol, "invalid", invalid, "total", len(records))
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
