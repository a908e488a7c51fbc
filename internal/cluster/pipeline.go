package cluster

import (
	"log/slog"

	"github.com/aqlab/aqpipe/internal/frame"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Params configures a single clustering run.
type Params struct {
	InputPath   string
	ValueCol    string
	DateCol     string
	LocationCol string
	OutRoot     string

	// FeatureCols overrides ValueCol when non-empty.
	FeatureCols []string
	// PCAComponents is the requested reduced dimensionality; nil means
	// unspecified (a default applies when reduction is possible).
	PCAComponents *int

	K           int
	RandomState int64
}

// Pipeline runs the load, aggregate, standardize, reduce, cluster, and write
// stages in order. Each stage consumes the previous stage's output; there is
// no shared state between runs.
type Pipeline struct {
	logger *slog.Logger
	clock  clockwork.Clock
}

// New creates a Pipeline with an injected logger and clock.
func New(logger *slog.Logger, clock clockwork.Clock) *Pipeline {
	return &Pipeline{logger: logger, clock: clock}
}

// Run executes the pipeline once and returns the run metadata. Configuration
// errors (missing input, unresolvable required column) and numeric failures
// are returned as errors with no partial output; fewer than two locations is
// not an error but a recognized terminal state, for which only the metadata
// document is written.
func (p *Pipeline) Run(params Params) (*RunMetadata, error) {
	p.logger.Info("loading input", "path", params.InputPath)
	tbl, err := frame.Load(params.InputPath)
	if err != nil {
		return nil, err
	}
	p.logger.Info("loaded feature table", "rows", tbl.NumRows(), "columns", tbl.Columns())

	matrix, err := BuildMatrix(tbl, BuildOptions{
		ValueCol:    params.ValueCol,
		DateCol:     params.DateCol,
		LocationCol: params.LocationCol,
		FeatureCols: params.FeatureCols,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	meta := &RunMetadata{
		RunID:         uuid.NewString(),
		Input:         params.InputPath,
		NLocations:    matrix.NumLocations(),
		ValueCol:      params.ValueCol,
		DateCol:       params.DateCol,
		LocationCol:   params.LocationCol,
		FeatureCols:   params.FeatureCols,
		PCARequestedN: params.PCAComponents,
		KRequested:    params.K,
		RandomState:   params.RandomState,
		Timestamp:     p.clock.Now().UTC(),
	}

	writer := NewWriter(params.OutRoot, p.logger)

	if matrix.NumLocations() < 2 {
		p.logger.Warn("not enough distinct locations to cluster, exiting gracefully",
			"n_locations", matrix.NumLocations())
		meta.Status = StatusSkippedNotEnoughLocations
		if _, err := writer.WriteMetadata(meta); err != nil {
			return nil, err
		}
		return meta, nil
	}

	scaler := &StandardScaler{}
	scaled := scaler.FitTransform(matrix.Data)
	p.logger.Info("standardized features", "n_locations", matrix.NumLocations(), "n_features", len(matrix.Columns))

	reduced, pcaModel, pcaUsed, err := Reduce(scaled, params.PCAComponents, p.logger)
	if err != nil {
		return nil, err
	}
	meta.PCAUsedN = pcaUsed

	k := params.K
	if maxK := max(1, matrix.NumLocations()-1); k > maxK {
		p.logger.Warn("requested k too large for location count, capping",
			"requested", k, "n_locations", matrix.NumLocations(), "k_used", maxK)
		k = maxK
	}
	meta.KUsed = k

	p.logger.Info("running kmeans", "k", k, "random_state", params.RandomState)
	km := NewKMeans(k, params.RandomState)
	labels, err := km.FitPredict(reduced)
	if err != nil {
		return nil, err
	}

	clustersCSV, err := writer.WriteAssignments(matrix.Locations, labels)
	if err != nil {
		return nil, err
	}
	summaryCSV, err := writer.WriteSummary(labels, k)
	if err != nil {
		return nil, err
	}
	modelsDir, err := writer.WriteModels(scaler, pcaModel, km)
	if err != nil {
		return nil, err
	}

	meta.Status = StatusCompleted
	meta.Outputs = &RunOutputs{
		ClustersCSV:       clustersCSV,
		ClusterSummaryCSV: summaryCSV,
		ModelsDir:         modelsDir,
	}
	if _, err := writer.WriteMetadata(meta); err != nil {
		return nil, err
	}

	p.logger.Info("clustering completed", "run_id", meta.RunID, "k_used", k, "inertia", km.Inertia)
	return meta, nil
}
