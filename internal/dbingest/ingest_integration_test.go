//go:build integration

package dbingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres runs a disposable postgres container and returns a connected DB.
func startPostgres(ctx context.Context, t *testing.T) *DB {
	t.Helper()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("aqpipe"),
		postgres.WithUsername("aqpipe"),
		postgres.WithPassword("aqpipe"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestCSV(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)

	dir := t.TempDir()
	writeArtifact(t, dir, "Merged_Dataset.csv", strings.Join([]string{
		"Date,O3_ug_m3,T2M,LC_Name",
		"2019-01-01,60.5,5,Urban and Built-up",
		"2019-02-01,70,8,Urban and Built-up",
		"2019-03-01,,11,Urban and Built-up",
	}, "\n"))

	rows, err := db.IngestCSV(ctx, filepath.Join(dir, "Merged_Dataset.csv"), "merged_data", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM "merged_data"`).Scan(&count))
	assert.Equal(t, 3, count)

	var o3 float64
	var lc string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT "O3_ug_m3", "LC_Name" FROM "merged_data" WHERE "Date" = '2019-01-01'`).Scan(&o3, &lc))
	assert.Equal(t, 60.5, o3)
	assert.Equal(t, "Urban and Built-up", lc)

	// Empty cell lands as NULL.
	var nulls int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM "merged_data" WHERE "O3_ug_m3" IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)

	// The Date column gets an index.
	var idx string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT indexname FROM pg_indexes WHERE tablename = 'merged_data'`).Scan(&idx))
	assert.Equal(t, "idx_merged_data_date", idx)
}

func TestIngestCSV_ReplacesExistingTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)

	dir := t.TempDir()
	writeArtifact(t, dir, "epa.csv", "Date,O3_ug_m3\n2019-01-01,60\n2019-02-01,70\n")
	path := filepath.Join(dir, "epa.csv")

	_, err := db.IngestCSV(ctx, path, "epa_o3", discardLogger())
	require.NoError(t, err)

	writeArtifact(t, dir, "epa.csv", "Date,O3_ug_m3\n2020-01-01,80\n")
	rows, err := db.IngestCSV(ctx, path, "epa_o3", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM "epa_o3"`).Scan(&count))
	assert.Equal(t, 1, count, "rerun replaces the table rather than appending")
}

func TestIngestAll(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)

	dir := t.TempDir()
	writeArtifact(t, dir, "Cleaned_EPA_O3_Monthly.csv", "Date,O3_ug_m3\n2019-01-01,60\n")
	writeArtifact(t, dir, "Merged_Dataset.csv", "Date,O3_ug_m3,T2M\n2019-01-01,60,5\n")
	// Cleaned_NASA_POWER_Monthly.csv intentionally absent.

	summaries, err := db.IngestAll(ctx, dir, DefaultTables, discardLogger())
	require.NoError(t, err)
	require.Len(t, summaries, 2, "missing artifact is skipped")
	assert.Equal(t, "epa_o3", summaries[0].Table)
	assert.Equal(t, "merged_data", summaries[1].Table)
}

func TestIngestAll_NothingToIngest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)

	_, err := db.IngestAll(ctx, t.TempDir(), DefaultTables, discardLogger())
	require.Error(t, err)
}
