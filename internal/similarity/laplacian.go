package similarity

import (
	"math"

	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// LaplacianSimilarity is 1 - |sum(A - B)| for graphs over the same keypoints.
// Graphs with different node sets are not comparable.
func LaplacianSimilarity(a, b *posematrix.LaplacianGraph) (float64, bool) {
	if a == nil || b == nil || !a.SameTopology(b) {
		return 0, false
	}
	return 1 - math.Abs(a.Sum()-b.Sum()), true
}
