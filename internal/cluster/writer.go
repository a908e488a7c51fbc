package cluster

import (
	"encoding/csv"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Output file names under the run's output directory.
const (
	assignmentsFile = "clusters_by_location.csv"
	summaryFile     = "cluster_summary.csv"
	metadataFile    = "clustering_metadata.json"
	modelsDirName   = "models"

	scalerModelFile = "scaler.gob"
	pcaModelFile    = "pca_model.gob"
	kmeansModelFile = "kmeans_model.gob"
)

// Writer persists run artifacts under a single output directory, creating it
// if absent. Files are unconditionally overwritten on rerun.
type Writer struct {
	outRoot string
	logger  *slog.Logger
}

// NewWriter returns a Writer rooted at outRoot.
func NewWriter(outRoot string, logger *slog.Logger) *Writer {
	return &Writer{outRoot: outRoot, logger: logger}
}

// WriteAssignments writes the per-location cluster table and returns its path.
func (w *Writer) WriteAssignments(locations []string, labels []int) (string, error) {
	if err := os.MkdirAll(w.outRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.outRoot, assignmentsFile)
	rows := make([][]string, 0, len(locations)+1)
	rows = append(rows, []string{"location", "cluster"})
	for i, loc := range locations {
		rows = append(rows, []string{loc, strconv.Itoa(labels[i])})
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	w.logger.Info("wrote cluster assignments", "path", path)
	return path, nil
}

// WriteSummary writes the per-cluster member count table and returns its path.
func (w *Writer) WriteSummary(labels []int, k int) (string, error) {
	if err := os.MkdirAll(w.outRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	path := filepath.Join(w.outRoot, summaryFile)
	rows := [][]string{{"cluster", "n_locations"}}
	for c, n := range counts {
		if n == 0 {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(c), strconv.Itoa(n)})
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	w.logger.Info("wrote cluster summary", "path", path)
	return path, nil
}

// WriteModels serializes the fitted standardizer, the reduction model when
// one was used, and the clustering model into the models subdirectory.
func (w *Writer) WriteModels(scaler *StandardScaler, pca *PCA, km *KMeans) (string, error) {
	dir := filepath.Join(w.outRoot, modelsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create models dir: %w", err)
	}

	if err := writeGob(filepath.Join(dir, scalerModelFile), scaler); err != nil {
		return "", err
	}
	if pca != nil {
		if err := writeGob(filepath.Join(dir, pcaModelFile), pca); err != nil {
			return "", err
		}
	}
	if err := writeGob(filepath.Join(dir, kmeansModelFile), km); err != nil {
		return "", err
	}

	w.logger.Info("wrote fitted models", "dir", dir, "reduction_model", pca != nil)
	return dir, nil
}

// WriteMetadata persists the run metadata document and returns its path.
func (w *Writer) WriteMetadata(meta *RunMetadata) (string, error) {
	if err := os.MkdirAll(w.outRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.outRoot, metadataFile)
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	w.logger.Info("wrote run metadata", "path", path, "status", meta.Status)
	return path, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw.Flush()
	return cw.Error()
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
