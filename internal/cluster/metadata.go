package cluster

import "time"

// Run statuses recorded in the metadata document.
const (
	StatusCompleted                 = "completed"
	StatusSkippedNotEnoughLocations = "skipped_not_enough_locations"
)

// RunOutputs lists the files a successful run produced.
type RunOutputs struct {
	ClustersCSV       string `json:"clusters_csv"`
	ClusterSummaryCSV string `json:"cluster_summary_csv"`
	ModelsDir         string `json:"models_dir"`
}

// RunMetadata describes the parameters and outcome of a single pipeline run.
// It is created once per run, never mutated afterwards, and persisted as the
// terminal artifact alongside the cluster assignments.
type RunMetadata struct {
	RunID       string   `json:"run_id"`
	Input       string   `json:"input"`
	Status      string   `json:"status"`
	NLocations  int      `json:"n_locations"`
	ValueCol    string   `json:"value_col"`
	DateCol     string   `json:"date_col"`
	LocationCol string   `json:"location_col"`
	FeatureCols []string `json:"feature_cols,omitempty"`

	PCARequestedN *int `json:"pca_requested_n"`
	PCAUsedN      int  `json:"pca_n_used"`

	KRequested  int   `json:"k_requested"`
	KUsed       int   `json:"k_used"`
	RandomState int64 `json:"random_state"`

	Outputs   *RunOutputs `json:"outputs,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
