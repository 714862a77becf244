package matching

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch signals vectors of different lengths. This is a
// programming invariant violation, not a recoverable runtime condition.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Vector is a fixed-length embedding produced by the provider in use.
type Vector []float64

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-magnitude operand yields 0 rather than NaN so that downstream
// sorting stays stable.
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
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
