package mergeset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// landcoverCandidates are checked in order; the first one that exists wins.
var landcoverCandidates = []string{
	"landcover_timeseries.csv",
	"landcover_timeseries_modis.csv",
	"extract_modis_timeseries.csv",
	"extract_modis_timeseries_out.csv",
	"modis_landcover_yearly.csv",
	"landcover_yearly.csv",
	"landcover_timeseries_garinger.csv",
	"landcover_timeseries_Garinger.csv",
}

// IGBPClassNames maps MODIS LC_Type1 codes to their IGBP class names.
var IGBPClassNames = map[int]string{
	0:   "Water",
	1:   "Evergreen Needleleaf Forest",
	2:   "Evergreen Broadleaf Forest",
	3:   "Deciduous Needleleaf Forest",
	4:   "Deciduous Broadleaf Forest",
	5:   "Mixed Forests",
	6:   "Closed Shrublands",
	7:   "Open Shrublands",
	8:   "Woody Savannas",
	9:   "Savannas",
	10:  "Grasslands",
	11:  "Permanent Wetlands",
	12:  "Croplands",
	13:  "Urban and Built-up",
	14:  "Cropland/Natural Vegetation Mosaic",
	15:  "Snow and Ice",
	16:  "Barren or Sparsely Vegetated",
	254: "Unclassified",
	255: "Fill Value",
}

// IGBPName returns the class name for a MODIS LC_Type1 code.
func IGBPName(code int) string {
	if name, ok := IGBPClassNames[code]; ok {
		return name
	}
	return "Unknown"
}

// FindLandcover returns the first candidate landcover CSV present in dir.
func FindLandcover(dir string) (string, bool) {
	for _, name := range landcoverCandidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadLandcover reads an annual landcover CSV, normalizes its year column to
// an integer Year, and labels LC_Code rows with their IGBP class name when no
// name column is already present. Rows whose year does not parse are dropped.
func LoadLandcover(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Error() != nil {
		return df, df.Error()
	}

	yearCol := ""
	for _, name := range df.Names() {
		if strings.Contains(strings.ToLower(name), "year") {
			yearCol = name
			break
		}
	}
	if yearCol == "" {
		return df, fmt.Errorf("no year column in %s, found: %v", path, df.Names())
	}

	raw := df.Col(yearCol).Records()
	keep := make([]int, 0, len(raw))
	for i, s := range raw {
		if _, ok := parseIntField(s); ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return df, fmt.Errorf("no parseable years in %s", path)
	}
	df = df.Subset(keep)
	if df.Error() != nil {
		return df, df.Error()
	}

	years := make([]int, df.Nrow())
	for i, s := range df.Col(yearCol).Records() {
		y, _ := parseIntField(s)
		years[i] = y
	}
	if yearCol != "Year" {
		df = df.Rename("Year", yearCol)
		if df.Error() != nil {
			return df, df.Error()
		}
	}
	df = df.Mutate(series.New(years, series.Int, "Year"))
	if df.Error() != nil {
		return df, df.Error()
	}

	return labelClasses(df)
}

// labelClasses adds an LC_Name column derived from LC_Code unless the file
// already carries one.
func labelClasses(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := df.Names()
	codeCol := ""
	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "lc_code" || lower == "lc_type1" {
			codeCol = name
		}
		if lower == "lc_name" {
			return df, nil
		}
	}
	if codeCol == "" {
		return df, nil
	}

	labels := make([]string, df.Nrow())
	for i, s := range df.Col(codeCol).Records() {
		code, ok := parseIntField(s)
		if !ok {
			labels[i] = "Unknown"
			continue
		}
		labels[i] = IGBPName(code)
	}
	df = df.Mutate(series.New(labels, series.String, "LC_Name"))
	return df, df.Error()
}

// parseIntField accepts both "2019" and "2019.0" renderings.
func parseIntField(s string) (int, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
