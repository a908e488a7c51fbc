package mergeset

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func testInputs(t *testing.T) (dir string, opts Options) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, DefaultEPAFile, strings.Join([]string{
		"Date,O3_ug_m3",
		"2019-01-01,60",
		"2019-02-01,70",
		"2019-03-01,80",
	}, "\n"))
	writeFile(t, dir, DefaultPowerFile, strings.Join([]string{
		"Date,T2M,PRECTOTCORR",
		"2019-02-01,5,30",
		"2019-03-01,8,20",
		"2019-04-01,12,50",
	}, "\n"))
	opts = Options{
		EPAPath:      filepath.Join(dir, DefaultEPAFile),
		PowerPath:    filepath.Join(dir, DefaultPowerFile),
		LandcoverDir: dir,
		OutPath:      filepath.Join(dir, DefaultOutputFile),
	}
	return dir, opts
}

func TestMerge_InnerJoinOnDate(t *testing.T) {
	_, opts := testInputs(t)

	result, err := Merge(opts, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows, "only overlapping months survive")
	assert.Empty(t, result.LandcoverFile)

	rows := readCSVFile(t, opts.OutPath)
	require.Len(t, rows, 3)
	header := rows[0]
	assert.Contains(t, header, "Date")
	assert.Contains(t, header, "O3_ug_m3")
	assert.Contains(t, header, "T2M")
	assert.Contains(t, header, "PRECTOTCORR")
	assert.Contains(t, header, "Year")
}

func TestMerge_YearDerivedFromDate(t *testing.T) {
	_, opts := testInputs(t)

	_, err := Merge(opts, discardLogger())
	require.NoError(t, err)

	rows := readCSVFile(t, opts.OutPath)
	yearIdx := indexOf(rows[0], "Year")
	require.GreaterOrEqual(t, yearIdx, 0)
	for _, r := range rows[1:] {
		assert.Equal(t, "2019", r[yearIdx])
	}
}

func TestMerge_WithLandcover(t *testing.T) {
	dir, opts := testInputs(t)
	writeFile(t, dir, "landcover_timeseries.csv", strings.Join([]string{
		"Year,LC_Code",
		"2019,13",
	}, "\n"))

	result, err := Merge(opts, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "landcover_timeseries.csv"), result.LandcoverFile)

	rows := readCSVFile(t, opts.OutPath)
	nameIdx := indexOf(rows[0], "LC_Name")
	require.GreaterOrEqual(t, nameIdx, 0)
	for _, r := range rows[1:] {
		assert.Equal(t, "Urban and Built-up", r[nameIdx])
	}
}

func TestMerge_LandcoverCandidateOrder(t *testing.T) {
	dir, opts := testInputs(t)
	writeFile(t, dir, "landcover_yearly.csv", "Year,LC_Code\n2019,0\n")
	writeFile(t, dir, "landcover_timeseries.csv", "Year,LC_Code\n2019,10\n")

	result, err := Merge(opts, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "landcover_timeseries.csv"), result.LandcoverFile,
		"earlier candidate wins")
}

func TestMerge_LandcoverYearsWithoutDataLeaveGaps(t *testing.T) {
	dir, opts := testInputs(t)
	writeFile(t, dir, "landcover_timeseries.csv", "Year,LC_Code\n2018,10\n")

	result, err := Merge(opts, discardLogger())
	require.NoError(t, err, "left join keeps monthly rows with no landcover match")
	assert.Equal(t, 2, result.Rows)
}

func TestMerge_MissingEPAInput(t *testing.T) {
	_, opts := testInputs(t)
	opts.EPAPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := Merge(opts, discardLogger())
	require.Error(t, err)
}

func TestMerge_UnparseableDatesDropped(t *testing.T) {
	dir, opts := testInputs(t)
	writeFile(t, dir, DefaultEPAFile, strings.Join([]string{
		"Date,O3_ug_m3",
		"garbage,60",
		"2019-02-01,70",
	}, "\n"))

	result, err := Merge(opts, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
}

func TestLoadLandcover_RenamesYearColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lc.csv", "year,LC_Code\n2019,12\n")

	df, err := LoadLandcover(path)
	require.NoError(t, err)
	assert.Contains(t, df.Names(), "Year")
	assert.Contains(t, df.Names(), "LC_Name")
}

func TestLoadLandcover_KeepsExistingNameColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lc.csv", "Year,LC_Code,LC_Name\n2019,12,Croplands\n")

	df, err := LoadLandcover(path)
	require.NoError(t, err)

	count := 0
	for _, n := range df.Names() {
		if n == "LC_Name" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestIGBPName(t *testing.T) {
	assert.Equal(t, "Water", IGBPName(0))
	assert.Equal(t, "Barren or Sparsely Vegetated", IGBPName(16))
	assert.Equal(t, "Fill Value", IGBPName(255))
	assert.Equal(t, "Unknown", IGBPName(99))
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
