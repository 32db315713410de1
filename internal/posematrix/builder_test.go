package posematrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

func rightTriangle() pose.Pose {
	return pose.Pose{
		{X: 0, Y: 0, Confidence: 0.9},
		{X: 3, Y: 0, Confidence: 0.9},
		{X: 0, Y: 4, Confidence: 0.9},
	}
}

func TestDistanceMatrix(t *testing.T) {
	b := NewBuilder(DefaultConfig())

	dm, ok := b.DistanceMatrix(rightTriangle())
	require.True(t, ok)
	assert.Equal(t, 3, dm.Size())
	assert.Equal(t, []float64{3, 4, 5}, dm.Condensed())
	assert.Equal(t, 0.0, dm.D.At(1, 1))
	assert.Equal(t, dm.D.At(0, 2), dm.D.At(2, 0))

	_, ok = b.DistanceMatrix(nil)
	assert.False(t, ok)
	_, ok = b.DistanceMatrix(pose.Pose{{X: 1, Y: 1, Confidence: 1}})
	assert.False(t, ok)
}

func TestNormalizedVector(t *testing.T) {
	b := NewBuilder(DefaultConfig())

	v, ok := b.NormalizedVector(rightTriangle())
	require.True(t, ok)
	assert.InDelta(t, 1.0, floats.Norm(v, 2), 1e-12)
	assert.InDelta(t, 3/math.Sqrt(25), v[2], 1e-12)

	_, ok = b.NormalizedVector(nil)
	assert.False(t, ok)
	_, ok = b.NormalizedVector(pose.Pose{{X: 0, Y: 0, Confidence: 1}})
	assert.False(t, ok)
}

func TestLaplacian(t *testing.T) {
	b := NewBuilder(DefaultConfig())

	t.Run("chain graph for non coco layouts", func(t *testing.T) {
		g, ok := b.Laplacian(rightTriangle())
		require.True(t, ok)
		assert.Equal(t, []int{0, 1, 2}, g.Nodes)
		assert.Equal(t, 3, g.Keypoints)

		for i := range 3 {
			assert.Equal(t, 1.0, g.L.At(i, i))
		}
		// 0 and 2 are not joined by the chain.
		assert.Equal(t, 0.0, g.L.At(0, 2))
		assert.Less(t, g.L.At(0, 1), 0.0)
	})

	t.Run("low confidence keypoints are dropped", func(t *testing.T) {
		p := rightTriangle()
		p[1].Confidence = 0
		g, ok := b.Laplacian(p)
		require.True(t, ok)
		assert.Equal(t, []int{0, 2}, g.Nodes)
		// with keypoint 1 gone the chain has no edge left
		assert.Equal(t, 0.0, g.L.At(0, 1))

		full, _ := b.Laplacian(rightTriangle())
		assert.False(t, g.SameTopology(full))
	})

	t.Run("too few nodes", func(t *testing.T) {
		_, ok := b.Laplacian(pose.Pose{{X: 1, Y: 1, Confidence: 1}})
		assert.False(t, ok)
	})

	t.Run("coco skeleton", func(t *testing.T) {
		p := make(pose.Pose, 17)
		for i := range p {
			p[i] = pose.Keypoint{X: float64(i), Y: float64(i % 3), Confidence: 1}
		}
		g, ok := b.Laplacian(p)
		require.True(t, ok)
		assert.Len(t, g.Nodes, 17)
		assert.NotEqual(t, 0.0, g.L.At(15, 13))
		assert.Equal(t, 0.0, g.L.At(15, 16))
	})

	t.Run("custom skeleton", func(t *testing.T) {
		custom := NewBuilder(Config{Skeleton: []Edge{{0, 2}}})
		g, ok := custom.Laplacian(rightTriangle())
		require.True(t, ok)
		assert.Less(t, g.L.At(0, 2), 0.0)
		assert.Equal(t, 0.0, g.L.At(0, 1))
	})
}
