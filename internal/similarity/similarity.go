// Package similarity implements the vector comparison functions used by the
// vector store.
package similarity

import (
	"fmt"
	"math"
	"strings"

	"ragcore/internal/domain"
)

// Metric selects how stored vectors are compared to a query.
type Metric int

const (
	MetricCosine Metric = iota
	MetricEuclidean
)

func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cosine"
	case MetricEuclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric maps a configuration value to a Metric. Empty means cosine.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return MetricCosine, nil
	case "euclidean", "l2":
		return MetricEuclidean, nil
	default:
		return 0, domain.ConfigErrorf("unknown similarity metric %q", s)
	}
}

// Cosine returns dot(a,b)/(|a||b|), or 0 when either norm is zero.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Score compares query with v so that a larger score always means more
// similar. For euclidean the score is 1/(1+distance) and the distance is
// returned as well.
func Score(m Metric, query, v []float64) (score float64, distance *float64, err error) {
	switch m {
	case MetricEuclidean:
		d, err := Euclidean(query, v)
		if err != nil {
			return 0, nil, err
		}
		return 1 / (1 + d), &d, nil
	default:
		s, err := Cosine(query, v)
		return s, nil, err
	}
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
