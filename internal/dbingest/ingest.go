package dbingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/aqlab/aqpipe/internal/cleanse"
	"github.com/aqlab/aqpipe/internal/mergeset"
)

// TableSpec maps a CSV artifact to its destination table.
type TableSpec struct {
	CSV   string
	Table string
}

// DefaultTables are the pipeline artifacts ingested by default. Missing
// files are skipped, so a partial pipeline run still ingests what it has.
var DefaultTables = []TableSpec{
	{CSV: mergeset.DefaultEPAFile, Table: "epa_o3"},
	{CSV: mergeset.DefaultPowerFile, Table: "nasa_power"},
	{CSV: mergeset.DefaultOutputFile, Table: "merged_data"},
}

// IngestSummary reports one ingested table.
type IngestSummary struct {
	Table string
	Rows  int
}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// IngestAll ingests every spec whose CSV exists under dir, replacing the
// destination tables. It fails when nothing could be ingested.
func (db *DB) IngestAll(ctx context.Context, dir string, tables []TableSpec, logger *slog.Logger) ([]IngestSummary, error) {
	var summaries []IngestSummary
	for _, spec := range tables {
		path := filepath.Join(dir, spec.CSV)
		if _, err := os.Stat(path); err != nil {
			logger.Warn("artifact not found, skipping", "path", path, "table", spec.Table)
			continue
		}

		rows, err := db.IngestCSV(ctx, path, spec.Table, logger)
		if err != nil {
			return summaries, fmt.Errorf("ingest %s into %s: %w", path, spec.Table, err)
		}
		summaries = append(summaries, IngestSummary{Table: spec.Table, Rows: rows})
	}

	if len(summaries) == 0 {
		return nil, errors.New("no artifacts found to ingest")
	}
	return summaries, nil
}

// IngestCSV replaces table with the contents of the CSV at path. Column
// types are inferred from the data; a Date column also gets an index for
// time-series queries.
func (db *DB) IngestCSV(ctx context.Context, path, table string, logger *slog.Logger) (int, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	types := inferColumnTypes(header, records)
	logger.Info("ingesting artifact", "path", path, "table", table, "rows", len(records))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(table)); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, header, types)); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, header...))
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		args := make([]any, len(header))
		for i := range header {
			if i >= len(rec) {
				args[i] = nil
				continue
			}
			args[i] = columnValue(rec[i], types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return 0, err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if idx := indexOfDateColumn(header); idx >= 0 {
		if err := db.createDateIndex(ctx, table, header[idx]); err != nil {
			return 0, err
		}
	}

	logger.Info("table replaced", "table", table, "rows", len(records))
	return len(records), nil
}

func (db *DB) createDateIndex(ctx context.Context, table, column string) error {
	name := fmt.Sprintf("idx_%s_date", table)
	query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(table), pq.QuoteIdentifier(column))
	_, err := db.ExecContext(ctx, query)
	return err
}

type columnType int

const (
	typeText columnType = iota
	typeDouble
	typeDate
)

func (t columnType) sqlType() string {
	switch t {
	case typeDouble:
		return "DOUBLE PRECISION"
	case typeDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// inferColumnTypes classifies each column by its non-empty cells: all dates,
// all numbers, or text.
func inferColumnTypes(header []string, records [][]string) []columnType {
	types := make([]columnType, len(header))
	for i := range header {
		allDates, allNumbers, seen := true, true, false
		for _, rec := range records {
			if i >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			seen = true
			if _, ok := cleanse.ParseDate(cell); !ok {
				allDates = false
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allNumbers = false
			}
		}
		switch {
		case seen && allDates:
			types[i] = typeDate
		case seen && allNumbers:
			types[i] = typeDouble
		default:
			types[i] = typeText
		}
	}
	return types
}

func createTableSQL(table string, header []string, types []columnType) string {
	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = pq.QuoteIdentifier(name) + " " + types[i].sqlType()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(table), strings.Join(cols, ", "))
}

func columnValue(cell string, t columnType) any {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return nil
	}
	switch t {
	case typeDate:
		d, _ := cleanse.ParseDate(cell)
		return d
	case typeDouble:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		return v
	default:
		return cell
	}
}

func indexOfDateColumn(header []string) int {
	for i, h := range header {
		if strings.EqualFold(h, "Date") {
			return i
		}
	}
	return -1
}

func readCSV(path string) ([]string, [][]string, error) {
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
