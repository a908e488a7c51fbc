package frame

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// ColumnNotFoundError reports a required column that could not be resolved,
// carrying the columns that were actually available.
type ColumnNotFoundError struct {
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found; available columns: %s",
		e.Column, strings.Join(e.Available, ", "))
}

// Table is an immutable rectangular feature table loaded from a CSV file.
type Table struct {
	df dataframe.DataFrame
}

// Load reads a CSV feature table from path. The first row is the header and
// column types are auto-detected.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Error() != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, df.Error())
	}
	return &Table{df: df}, nil
}

// FromDataFrame wraps an existing dataframe, used by tests.
func FromDataFrame(df dataframe.DataFrame) *Table {
	return &Table{df: df}
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return t.df.Names()
}

// NumRows returns the number of observation rows.
func (t *Table) NumRows() int {
	return t.df.Nrow()
}

// Resolve maps name to an actual column case-insensitively. An exact match
// wins; otherwise the first column whose lowercased form is identical is used.
func (t *Table) Resolve(name string) (string, error) {
	names := t.df.Names()
	for _, c := range names {
		if c == name {
			return c, nil
		}
	}
	lower := strings.ToLower(name)
	for _, c := range names {
		if strings.ToLower(c) == lower {
			return c, nil
		}
	}
	return "", &ColumnNotFoundError{Column: name, Available: names}
}

// Strings returns the column values as strings.
func (t *Table) Strings(col string) []string {
	return t.df.Col(col).Records()
}

// Floats returns the column values as float64, with NaN for values that do
// not parse as numbers.
func (t *Table) Floats(col string) []float64 {
	return t.df.Col(col).Float()
}
