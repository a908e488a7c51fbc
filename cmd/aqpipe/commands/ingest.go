package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aqlab/aqpipe/internal/dbingest"
	"github.com/aqlab/aqpipe/internal/printer"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest pipeline artifacts into Postgres",
	Long: `Ingest the cleaned and merged CSV artifacts into Postgres.

Each artifact replaces its destination table (epa_o3, nasa_power,
merged_data), with column types inferred from the data and an index on
the Date column. Missing artifacts are skipped; the command fails when
nothing could be ingested.

Connection settings come from the environment (DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME, DB_SSLMODE), with a .env file loaded when present.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", ".", "Directory holding the pipeline artifacts")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	db, err := dbingest.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	summaries, err := db.IngestAll(context.Background(), ingestDir, dbingest.DefaultTables, logger)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		printer.Success("replaced table %s (%d rows)", s.Table, s.Rows)
	}
	return nil
}
