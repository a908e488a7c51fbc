package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// StandardScaler rescales each column to zero mean and unit variance.
// Columns with zero variance are left centered at zero rather than divided
// by zero.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes the per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X *mat.Dense) {
	n, d := X.Dims()
	s.Mean = make([]float64, d)
	s.Std = make([]float64, d)

	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(n)

		variance := 0.0
		for i := 0; i < n; i++ {
			diff := X.At(i, j) - s.Mean[j]
			variance += diff * diff
		}
		s.Std[j] = math.Sqrt(variance / float64(n))
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
}

// Transform returns a standardized copy of X.
func (s *StandardScaler) Transform(X *mat.Dense) *mat.Dense {
	n, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Std[j])
		}
	}
	return out
}

// FitTransform fits the scaler on X and returns the standardized copy.
func (s *StandardScaler) FitTransform(X *mat.Dense) *mat.Dense {
	s.Fit(X)
	return s.Transform(X)
}
