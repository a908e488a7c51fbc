package cluster

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

func TestReduce_CapsToMinRowsCols(t *testing.T) {
	// 3 locations x 5 features, requesting 10 components: effective count 3,
	// and since 3 != 5 the reduction is applied.
	X := standardized(3, 5)

	out, model, used, err := Reduce(X, intPtr(10), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, 3, used)

	_, cols := out.Dims()
	assert.Equal(t, 3, cols)
}

func TestReduce_SkipsWhenCountEqualsFeatureCount(t *testing.T) {
	X := standardized(10, 2)

	out, model, used, err := Reduce(X, intPtr(2), discardLogger())
	require.NoError(t, err)
	assert.Nil(t, model)
	assert.Equal(t, 2, used)
	assert.Same(t, X, out, "input returned unchanged")
}

func TestReduce_SkipsOnNonPositiveRequest(t *testing.T) {
	X := standardized(5, 3)

	out, model, used, err := Reduce(X, intPtr(0), discardLogger())
	require.NoError(t, err)
	assert.Nil(t, model)
	assert.Equal(t, 0, used)
	assert.Same(t, X, out)
}

func TestReduce_DefaultsToTwoComponents(t *testing.T) {
	X := standardized(6, 4)

	out, model, used, err := Reduce(X, nil, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, 2, used)

	_, cols := out.Dims()
	assert.Equal(t, 2, cols)
	assert.Len(t, model.Components, 2)
	assert.Len(t, model.Explained, 2)
}

func TestReduce_TwoLocationsFiveFeatures(t *testing.T) {
	// min(2, 5) = 2 and 2 != 5, so reduction still applies.
	X := standardized(2, 5)

	out, model, used, err := Reduce(X, intPtr(2), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, 2, used)

	rows, cols := out.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
}

// standardized builds a deterministic zero-mean matrix with distinct rows.
func standardized(n, d int) *mat.Dense {
	X := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, float64((i+1)*(j+2)%7)+float64(i)*0.31)
		}
	}
	s := &StandardScaler{}
	return s.FitTransform(X)
}
