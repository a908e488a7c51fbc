// Command aqpipe runs the air-quality data pipeline: cleaning raw EPA and
// NASA POWER exports, merging them with annual landcover, verifying the
// merged dataset, clustering monitoring locations, and ingesting artifacts
// into Postgres.
package main

import (
	"os"

	"github.com/aqlab/aqpipe/cmd/aqpipe/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
