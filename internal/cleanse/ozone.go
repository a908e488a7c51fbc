package cleanse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonical output column for converted ozone readings.
const OzoneColumn = "O3_ug_m3"

// datePreferences are tried as exact (lowercased) matches, in order, before
// falling back to any column containing "date".
var datePreferences = []string{"date local", "date_local", "date", "measurement date", "utc"}

// ozonePatterns are tried in order against every column; the first column
// matching the first pattern that hits anything wins.
var ozonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)arithmetic`),
	regexp.MustCompile(`(?i)8-?hour`),
	regexp.MustCompile(`(?i)daily.*max`),
	regexp.MustCompile(`(?i)o3`),
	regexp.MustCompile(`(?i)ozone`),
	regexp.MustCompile(`(?i)daily.*obs`),
	regexp.MustCompile(`(?i)daily.*avg`),
	regexp.MustCompile(`(?i)value`),
}

// DetectedColumns names the columns chosen from a raw EPA export.
// UnitCol is empty when no unit column exists.
type DetectedColumns struct {
	DateCol  string
	OzoneCol string
	UnitCol  string
}

// DetectColumns resolves the date, ozone, and unit columns of a raw EPA CSV
// header. Date and ozone are required; failure to detect either is an error
// rather than a nil sentinel.
func DetectColumns(cols []string) (DetectedColumns, error) {
	var out DetectedColumns

	out.DateCol = findDateColumn(cols)
	if out.DateCol == "" {
		return out, fmt.Errorf("no date column detected among: %s", strings.Join(cols, ", "))
	}

	out.OzoneCol = findByPatterns(cols, ozonePatterns)
	if out.OzoneCol == "" {
		return out, fmt.Errorf("no ozone column detected among: %s", strings.Join(cols, ", "))
	}

	out.UnitCol = findUnitColumn(cols)
	return out, nil
}

func findDateColumn(cols []string) string {
	for _, pref := range datePreferences {
		for _, c := range cols {
			if strings.ToLower(strings.TrimSpace(c)) == pref {
				return c
			}
		}
	}
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c), "date") {
			return c
		}
	}
	return ""
}

func findByPatterns(cols []string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		for _, c := range cols {
			if p.MatchString(c) {
				return c
			}
		}
	}
	return ""
}

func findUnitColumn(cols []string) string {
	for _, c := range cols {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "unit") {
			return c
		}
	}
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c), "measure") {
			return c
		}
	}
	return ""
}

// ToMicrogramsPerM3 converts an ozone reading to µg/m³ based on its unit
// string. ppm and ppb use the 25°C approximations (1 ppm ≈ 2140 µg/m³,
// 1 ppb ≈ 2.14 µg/m³); µg/m³ and unknown units pass through unchanged.
func ToMicrogramsPerM3(value float64, unit string) float64 {
	u := strings.ToLower(unit)
	switch {
	case strings.Contains(u, "ppm"):
		return value * 2140.0
	case strings.Contains(u, "ppb"):
		return value * 2.14
	default:
		return value
	}
}

// FileWarning records a skipped input file and why.
type FileWarning struct {
	File   string
	Reason string
}

// MonthlyValue is one month-start date with its aggregated value.
type MonthlyValue struct {
	Date  time.Time
	Value float64
}

// OzoneResult is the outcome of cleaning a set of raw EPA exports.
type OzoneResult struct {
	Rows        []MonthlyValue
	FilesParsed int
	Warnings    []FileWarning
}

// CleanOzone reads each raw EPA CSV, auto-detects its columns, converts
// readings to µg/m³, and aggregates everything to monthly means. Files that
// cannot be read or whose columns cannot be detected are skipped with a
// warning; the run fails only when nothing parses.
func CleanOzone(paths []string, logger *slog.Logger) (*OzoneResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	result := &OzoneResult{}
	type monthAcc struct {
		sum   float64
		count int
	}
	months := make(map[time.Time]*monthAcc)

	for _, path := range paths {
		logger.Info("loading raw EPA file", "path", path)
		header, records, err := readCSVFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			result.Warnings = append(result.Warnings, FileWarning{File: path, Reason: err.Error()})
			continue
		}

		detected, err := DetectColumns(header)
		if err != nil {
			logger.Warn("skipping file, column detection failed", "path", path, "error", err)
			result.Warnings = append(result.Warnings, FileWarning{File: path, Reason: err.Error()})
			continue
		}
		logger.Debug("detected columns", "path", path,
			"date", detected.DateCol, "ozone", detected.OzoneCol, "unit", detected.UnitCol)

		dateIdx := columnIndex(header, detected.DateCol)
		ozoneIdx := columnIndex(header, detected.OzoneCol)
		unitIdx := -1
		if detected.UnitCol != "" {
			unitIdx = columnIndex(header, detected.UnitCol)
		}

		parsed := 0
		for _, rec := range records {
			if dateIdx >= len(rec) || ozoneIdx >= len(rec) {
				continue
			}
			date, ok := ParseDate(rec[dateIdx])
			if !ok {
				continue
			}
			raw, err := strconv.ParseFloat(strings.TrimSpace(rec[ozoneIdx]), 64)
			if err != nil || math.IsNaN(raw) {
				continue
			}

			value := raw
			if unitIdx >= 0 && unitIdx < len(rec) {
				value = ToMicrogramsPerM3(raw, rec[unitIdx])
			}

			month := monthStart(date)
			acc, ok := months[month]
			if !ok {
				acc = &monthAcc{}
				months[month] = acc
			}
			acc.sum += value
			acc.count++
			parsed++
		}

		if parsed == 0 {
			logger.Warn("no usable rows in file", "path", path)
			result.Warnings = append(result.Warnings, FileWarning{File: path, Reason: "no usable rows"})
			continue
		}
		result.FilesParsed++
	}

	if result.FilesParsed == 0 {
		return nil, errors.New("no input files parsed successfully")
	}

	keys := make([]time.Time, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for _, k := range keys {
		acc := months[k]
		result.Rows = append(result.Rows, MonthlyValue{Date: k, Value: acc.sum / float64(acc.count)})
	}

	logger.Info("monthly aggregation complete",
		"files_parsed", result.FilesParsed, "months", len(result.Rows), "warnings", len(result.Warnings))
	return result, nil
}

// WriteMonthlyCSV writes Date plus one value column, overwriting path.
func WriteMonthlyCSV(path, valueHeader string, rows []MonthlyValue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", valueHeader}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Date.Format("2006-01-02"), formatFloat(r.Value)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"2006-01",
}

// ParseDate tries an ordered list of layouts, returning false when none fit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func readCSVFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
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
