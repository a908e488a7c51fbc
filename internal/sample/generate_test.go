package sample

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestGenerate_Shape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	opts := DefaultOptions()

	require.NoError(t, Generate(path, opts, discardLogger()))

	rows := readRows(t, path)
	assert.Equal(t, []string{"location", "date", "o3_ug_m3", "t2m_c", "prcp_mm"}, rows[0])
	assert.Len(t, rows, 1+len(opts.Locations)*opts.Months)
}

func TestGenerate_DeterministicForSameSeed(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	opts := DefaultOptions()

	require.NoError(t, Generate(a, opts, discardLogger()))
	require.NoError(t, Generate(b, opts, discardLogger()))

	assert.Equal(t, readRows(t, a), readRows(t, b))
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	opts := DefaultOptions()
	require.NoError(t, Generate(a, opts, discardLogger()))
	opts.Seed = 7
	require.NoError(t, Generate(b, opts, discardLogger()))

	assert.NotEqual(t, readRows(t, a), readRows(t, b))
}

func TestGenerate_ValuesAreNumeric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, Generate(path, DefaultOptions(), discardLogger()))

	rows := readRows(t, path)
	for _, r := range rows[1:] {
		for _, cell := range r[2:] {
			_, err := strconv.ParseFloat(cell, 64)
			assert.NoError(t, err, "cell %q", cell)
		}
	}
}

func TestGenerate_PrecipitationNonNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, Generate(path, DefaultOptions(), discardLogger()))

	rows := readRows(t, path)
	for _, r := range rows[1:] {
		v, err := strconv.ParseFloat(r[4], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestGenerate_InvalidOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")

	opts := DefaultOptions()
	opts.Locations = nil
	require.Error(t, Generate(path, opts, discardLogger()))

	opts = DefaultOptions()
	opts.Months = 0
	require.Error(t, Generate(path, opts, discardLogger()))
}
