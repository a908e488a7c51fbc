package cleanse

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PowerTable is a cleaned, monthly-aggregated NASA POWER dataset.
type PowerTable struct {
	Dates   []time.Time
	Columns []string
	// Data is row-major: Data[i][j] is column j for month i.
	Data [][]float64
}

// CleanPower reads a NASA POWER point export, which carries a free-text
// preamble before the actual header row. It locates the header by the YEAR
// and DOY columns, builds dates from year + day-of-year, keeps temperature
// and precipitation columns, converts Kelvin temperatures to Celsius, and
// aggregates to monthly values (temperature mean, precipitation sum).
func CleanPower(path string, logger *slog.Logger) (*PowerTable, error) {
	header, records, err := readPowerCSV(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded NASA POWER file", "path", path, "columns", header, "rows", len(records))

	yearIdx := indexOfUpper(header, "YEAR")
	doyIdx := indexOfUpper(header, "DOY")
	if yearIdx < 0 || doyIdx < 0 {
		return nil, fmt.Errorf("expected YEAR and DOY columns, found: %s", strings.Join(header, ", "))
	}

	var keep []int
	for i, c := range header {
		if isTemperatureColumn(c) || isPrecipitationColumn(c) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("no temperature or precipitation columns found in: %s", strings.Join(header, ", "))
	}

	columns := make([]string, len(keep))
	for j, idx := range keep {
		columns[j] = strings.TrimSpace(header[idx])
	}

	dates := make([]time.Time, 0, len(records))
	values := make([][]float64, 0, len(records))
	for _, rec := range records {
		if yearIdx >= len(rec) || doyIdx >= len(rec) {
			continue
		}
		year, errY := strconv.Atoi(strings.TrimSpace(rec[yearIdx]))
		doy, errD := parseIntFromFloat(rec[doyIdx])
		if errY != nil || errD != nil {
			continue
		}
		date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)

		row := make([]float64, len(keep))
		for j, idx := range keep {
			v := math.NaN()
			if idx < len(rec) {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64); err == nil {
					v = parsed
				}
			}
			row[j] = v
		}
		dates = append(dates, date)
		values = append(values, row)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no usable data rows in %s", path)
	}

	convertKelvinColumns(columns, values, logger)

	table := aggregateMonthly(dates, columns, values)
	logger.Info("monthly aggregation complete", "months", len(table.Dates), "columns", table.Columns)
	return table, nil
}

// WriteCSV writes the table with a Date column first, overwriting path.
func (t *PowerTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"Date"}, t.Columns...)); err != nil {
		return err
	}
	for i, d := range t.Dates {
		rec := make([]string, 0, len(t.Columns)+1)
		rec = append(rec, d.Format("2006-01-02"))
		for _, v := range t.Data[i] {
			rec = append(rec, formatFloat(v))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readPowerCSV scans past the preamble to the header row containing both
// YEAR and DOY, then parses the remainder as CSV.
func readPowerCSV(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	lines := strings.Split(string(data), "\n")
	start := -1
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "YEAR") && strings.Contains(upper, "DOY") {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, fmt.Errorf("no header row with YEAR and DOY found in %s", path)
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("no data rows in %s", path)
	}
	return all[0], all[1:], nil
}

func isTemperatureColumn(name string) bool {
	u := strings.ToUpper(name)
	return strings.Contains(u, "T2M") || strings.Contains(u, "TEMP")
}

func isPrecipitationColumn(name string) bool {
	u := strings.ToUpper(name)
	return strings.Contains(u, "PRECTOT") || strings.Contains(u, "PRECIP") || strings.Contains(u, "PRCP")
}

// convertKelvinColumns converts a temperature column in place when its mean
// exceeds 100, which only makes sense for Kelvin readings.
func convertKelvinColumns(columns []string, values [][]float64, logger *slog.Logger) {
	for j, c := range columns {
		if !isTemperatureColumn(c) {
			continue
		}
		sum, count := 0.0, 0
		for _, row := range values {
			if math.IsNaN(row[j]) {
				continue
			}
			sum += row[j]
			count++
		}
		if count == 0 {
			continue
		}
		if mean := sum / float64(count); mean > 100 {
			logger.Info("converting temperature column from Kelvin to Celsius", "column", c, "mean", mean)
			for _, row := range values {
				if !math.IsNaN(row[j]) {
					row[j] -= 273.15
				}
			}
		}
	}
}

// aggregateMonthly groups rows by month start; temperature and fallback
// columns take the mean, precipitation columns the sum.
func aggregateMonthly(dates []time.Time, columns []string, values [][]float64) *PowerTable {
	type acc struct {
		sum   []float64
		count []int
	}
	months := make(map[time.Time]*acc)
	for i, d := range dates {
		m := monthStart(d)
		a, ok := months[m]
		if !ok {
			a = &acc{sum: make([]float64, len(columns)), count: make([]int, len(columns))}
			months[m] = a
		}
		for j, v := range values[i] {
			if math.IsNaN(v) {
				continue
			}
			a.sum[j] += v
			a.count[j]++
		}
	}

	keys := make([]time.Time, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := &PowerTable{Columns: columns}
	for _, k := range keys {
		a := months[k]
		row := make([]float64, len(columns))
		for j, c := range columns {
			if a.count[j] == 0 {
				row[j] = math.NaN()
				continue
			}
			if isPrecipitationColumn(c) {
				row[j] = a.sum[j]
			} else {
				row[j] = a.sum[j] / float64(a.count[j])
			}
		}
		out.Dates = append(out.Dates, k)
		out.Data = append(out.Data, row)
	}
	return out
}

func parseIntFromFloat(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func indexOfUpper(header []string, name string) int {
	for i, h := range header {
		if strings.ToUpper(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return -1
}
