package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"Scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"Orthogonal", []float64{1, 0, 0}, []float64{0, 1, 0}, 0},
		{"Opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"ZeroNorm", []float64{0, 0, 0}, []float64{1, 2, 3}, 0},
		{"Empty", []float64{}, []float64{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestEuclidean(t *testing.T) {
	d, err := Euclidean([]float64{0, 0, 0}, []float64{3, 4, 0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)

	d, err = Euclidean([]float64{0, 0, 0}, []float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = Euclidean([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, _, err = Score(MetricEuclidean, []float64{1}, []float64{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestScore(t *testing.T) {
	s, dist, err := Score(MetricCosine, []float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)
	assert.Nil(t, dist)

	s, dist, err = Score(MetricEuclidean, []float64{0, 0, 0}, []float64{3, 4, 0})
	require.NoError(t, err)
	require.NotNil(t, dist)
	assert.Equal(t, 5.0, *dist)
	assert.InDelta(t, 1.0/6.0, s, 1e-9)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	m, err = ParseMetric("Euclidean")
	require.NoError(t, err)
	assert.Equal(t, MetricEuclidean, m)
	assert.Equal(t, "euclidean", m.String())

	_, err = ParseMetric("manhattan")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)

	zero := []float64{0, 0}
	Normalize(zero)
	assert.Equal(t, []float64{0, 0}, zero)
}
