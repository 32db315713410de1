// Package posematrix turns a single pose into the comparable
// representations used by the similarity engine.
package posematrix

import (
	"gonum.org/v1/gonum/mat"
)

// Representation is one of DistanceMatrix, NormalizedVector or
// LaplacianGraph. The set is closed.
type Representation interface {
	isRepresentation()
}

// DistanceMatrix holds the pairwise Euclidean keypoint distances of a pose.
type DistanceMatrix struct {
	D *mat.SymDense
}

func (*DistanceMatrix) isRepresentation() {}

// Size is the keypoint count.
func (m *DistanceMatrix) Size() int {
	return m.D.SymmetricDim()
}

// Condensed returns the strict upper triangle in row-major order.
func (m *DistanceMatrix) Condensed() []float64 {
	n := m.Size()
	out := make([]float64, 0, n*(n-1)/2)
	for i := range n {
		for j := i + 1; j < n; j++ {
			out = append(out, m.D.At(i, j))
		}
	}
	return out
}

// NormalizedVector is a pose's flattened (x, y) coordinates scaled to unit
// length.
type NormalizedVector []float64

func (NormalizedVector) isRepresentation() {}

// LaplacianGraph is the normalized graph Laplacian of a pose's skeleton.
// Nodes lists the keypoint indices that took part, in ascending order, out
// of Keypoints in the source pose.
type LaplacianGraph struct {
	Keypoints int
	Nodes     []int
	L         *mat.SymDense
}

func (*LaplacianGraph) isRepresentation() {}

// Sum is the sum of all Laplacian entries.
func (g *LaplacianGraph) Sum() float64 {
	n := g.L.SymmetricDim()
	var sum float64
	for i := range n {
		for j := range n {
			sum += g.L.At(i, j)
		}
	}
	return sum
}

// SameTopology reports whether both graphs cover the same keypoints.
func (g *LaplacianGraph) SameTopology(other *LaplacianGraph) bool {
	if g.Keypoints != other.Keypoints || len(g.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range g.Nodes {
		if g.Nodes[i] != other.Nodes[i] {
			return false
		}
	}
	return true
}
