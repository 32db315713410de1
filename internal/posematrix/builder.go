package posematrix

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

// Edge joins two keypoint indices.
type Edge [2]int

// COCOSkeleton is the limb list of the 17 keypoint COCO layout.
var COCOSkeleton = []Edge{
	{15, 13}, {13, 11}, {16, 14}, {14, 12}, {11, 12},
	{5, 11}, {6, 12}, {5, 6}, {5, 7}, {6, 8},
	{7, 9}, {8, 10}, {1, 2}, {0, 1}, {0, 2},
	{1, 3}, {2, 4}, {3, 5}, {4, 6},
}

const cocoKeypoints = 17

// Config controls how representations are built.
type Config struct {
	// MinNodeConfidence is the confidence a keypoint must exceed to become a
	// Laplacian graph node.
	MinNodeConfidence float64

	// Skeleton overrides the graph edges. When nil, COCOSkeleton is used for
	// 17 keypoint poses and a chain 0-1-2-... for any other layout.
	Skeleton []Edge
}

// DefaultConfig returns the builder defaults.
func DefaultConfig() Config {
	return Config{
		MinNodeConfidence: 0,
	}
}

// Builder builds pose representations.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

func distance(a, b pose.Keypoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceMatrix returns the pairwise keypoint distance matrix. Poses with
// fewer than two keypoints have none.
func (b *Builder) DistanceMatrix(p pose.Pose) (*DistanceMatrix, bool) {
	n := len(p)
	if n < 2 {
		return nil, false
	}
	d := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, distance(p[i], p[j]))
		}
	}
	return &DistanceMatrix{D: d}, true
}

// NormalizedVector returns the pose's (x, y) coordinates scaled to unit L2
// norm. Empty and all-zero poses have none.
func (b *Builder) NormalizedVector(p pose.Pose) (NormalizedVector, bool) {
	if p.Empty() {
		return nil, false
	}
	v := p.XY()
	norm := floats.Norm(v, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, false
	}
	floats.Scale(1/norm, v)
	return NormalizedVector(v), true
}

func (b *Builder) skeleton(keypoints int) []Edge {
	if b.cfg.Skeleton != nil {
		return b.cfg.Skeleton
	}
	if keypoints == cocoKeypoints {
		return COCOSkeleton
	}
	edges := make([]Edge, 0, max(keypoints-1, 0))
	for i := 1; i < keypoints; i++ {
		edges = append(edges, Edge{i - 1, i})
	}
	return edges
}

// Laplacian returns the symmetric normalized Laplacian I - D^-1/2 W D^-1/2
// of the pose skeleton restricted to keypoints above MinNodeConfidence. Edge
// weights fall from 1 towards 0.5 as limb length approaches the widest span
// of the pose. Fewer than two nodes yields no graph.
func (b *Builder) Laplacian(p pose.Pose) (*LaplacianGraph, bool) {
	position := make(map[int]int, len(p))
	var nodes []int
	for i, kp := range p {
		if kp.Confidence > b.cfg.MinNodeConfidence {
			position[i] = len(nodes)
			nodes = append(nodes, i)
		}
	}
	n := len(nodes)
	if n < 2 {
		return nil, false
	}

	var scale float64
	for i := range n {
		for j := i + 1; j < n; j++ {
			scale = max(scale, distance(p[nodes[i]], p[nodes[j]]))
		}
	}
	if scale == 0 {
		scale = 1
	}

	w := mat.NewSymDense(n, nil)
	for _, e := range b.skeleton(len(p)) {
		a, okA := position[e[0]]
		c, okC := position[e[1]]
		if !okA || !okC || a == c {
			continue
		}
		w.SetSym(a, c, 1/(1+distance(p[e[0]], p[e[1]])/scale))
	}

	invSqrt := make([]float64, n)
	for i := range n {
		var deg float64
		for j := range n {
			deg += w.At(i, j)
		}
		if deg > 0 {
			invSqrt[i] = 1 / math.Sqrt(deg)
		}
	}

	l := mat.NewSymDense(n, nil)
	for i := range n {
		l.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if v := w.At(i, j); v != 0 {
				l.SetSym(i, j, -v*invSqrt[i]*invSqrt[j])
			}
		}
	}

	return &LaplacianGraph{Keypoints: len(p), Nodes: nodes, L: l}, true
}
