package cluster

import (
	"errors"
	"log/slog"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultComponents is used when no component count is requested.
const DefaultComponents = 2

// PCA holds a fitted principal-component model: the kept component vectors
// (each of feature-space length) and their explained variances.
type PCA struct {
	Components  [][]float64
	Explained   []float64
	NComponents int
}

// Project maps X onto the kept components.
func (p *PCA) Project(X *mat.Dense) *mat.Dense {
	n, d := X.Dims()
	vecs := mat.NewDense(d, p.NComponents, nil)
	for k, comp := range p.Components {
		for j, v := range comp {
			vecs.Set(j, k, v)
		}
	}
	out := mat.NewDense(n, p.NComponents, nil)
	out.Mul(X, vecs)
	return out
}

// Reduce decides whether dimensionality reduction applies and performs it.
//
// The effective component count is min(requested, min(rows, cols)), with
// requested defaulting to DefaultComponents when nil. Reduction is skipped
// (X is returned unchanged with a nil model) when the effective count is not
// positive or equals the column count (no actual reduction). The returned int
// is the component count actually used.
func Reduce(X *mat.Dense, requested *int, logger *slog.Logger) (*mat.Dense, *PCA, int, error) {
	n, d := X.Dims()
	maxAllowed := min(n, d)

	req := DefaultComponents
	if requested != nil {
		req = *requested
	}
	nUsed := min(req, maxAllowed)

	if nUsed <= 0 {
		logger.Info("reduction skipped: not enough rows or features", "requested", req)
		return X, nil, 0, nil
	}
	if nUsed == d {
		logger.Info("reduction skipped: component count equals feature count", "n_features", d)
		return X, nil, d, nil
	}

	logger.Info("running principal component reduction",
		"n_components", nUsed, "requested", req, "max_allowed", maxAllowed)

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, nil, 0, errors.New("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	model := &PCA{
		Components:  make([][]float64, nUsed),
		Explained:   vars[:nUsed],
		NComponents: nUsed,
	}
	for k := 0; k < nUsed; k++ {
		comp := make([]float64, d)
		for j := 0; j < d; j++ {
			comp[j] = vecs.At(j, k)
		}
		model.Components[k] = comp
	}

	return model.Project(X), model, nUsed, nil
}
