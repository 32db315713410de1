package similarity

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// kite is an irregular four point pose so no distance matrix is constant.
func kite(dx, dy, scale float64) pose.Pose {
	base := [][2]float64{{0, 0}, {2, 0.5}, {1, 3}, {-1, 1.5}}
	p := make(pose.Pose, len(base))
	for i, b := range base {
		p[i] = pose.Keypoint{X: b[0]*scale + dx, Y: b[1]*scale + dy, Confidence: 0.9}
	}
	return p
}

func bent() pose.Pose {
	return pose.Pose{
		{X: 0, Y: 0, Confidence: 0.9},
		{X: 3, Y: 0.2, Confidence: 0.9},
		{X: 0.3, Y: 1, Confidence: 0.9},
		{X: -2, Y: 4, Confidence: 0.9},
	}
}

func slots(poses ...pose.Pose) []pose.Slot {
	out := make([]pose.Slot, len(poses))
	for i, p := range poses {
		out[i] = pose.Slot{Pose: p, Present: !p.Empty()}
	}
	return out
}

func mustDM(t *testing.T, p pose.Pose) *posematrix.DistanceMatrix {
	t.Helper()
	dm, ok := posematrix.NewBuilder(posematrix.DefaultConfig()).DistanceMatrix(p)
	require.True(t, ok)
	return dm
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{Distance, Cosine, Laplacian} {
		parsed, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMethod("euclid")
	assert.True(t, errs.IsInvalid(err))
}

func TestMantel(t *testing.T) {
	t.Run("identical and scaled matrices correlate perfectly", func(t *testing.T) {
		res, err := Mantel(mustDM(t, kite(0, 0, 1)), mustDM(t, kite(4, -2, 3)), DefaultMantelOptions())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Statistic, 1e-9)
		assert.True(t, math.IsNaN(res.PValue))
		assert.Equal(t, 4, res.N)
	})

	t.Run("different shapes correlate less", func(t *testing.T) {
		res, err := Mantel(mustDM(t, kite(0, 0, 1)), mustDM(t, bent()), DefaultMantelOptions())
		require.NoError(t, err)
		assert.Less(t, res.Statistic, 1.0)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := Mantel(mustDM(t, kite(0, 0, 1)), mustDM(t, kite(0, 0, 1)[:3]), DefaultMantelOptions())
		assert.True(t, errs.IsInvalid(err))
	})

	t.Run("too few points", func(t *testing.T) {
		p := kite(0, 0, 1)[:2]
		_, err := Mantel(mustDM(t, p), mustDM(t, p), DefaultMantelOptions())
		assert.True(t, errs.IsInvalid(err))
	})

	t.Run("constant matrix gives NaN", func(t *testing.T) {
		line := pose.Pose{{X: 0, Y: 0, Confidence: 1}, {X: 0, Y: 0, Confidence: 1}, {X: 0, Y: 0, Confidence: 1}}
		res, err := Mantel(mustDM(t, line), mustDM(t, kite(0, 0, 1)[:3]), DefaultMantelOptions())
		require.NoError(t, err)
		assert.True(t, math.IsNaN(res.Statistic))
	})

	t.Run("spearman ignores monotone distortion", func(t *testing.T) {
		x := mustDM(t, bent())
		y := posematrix.DistanceMatrix{D: mat.NewSymDense(4, nil)}
		for i := range 4 {
			for j := i + 1; j < 4; j++ {
				y.D.SetSym(i, j, math.Exp(x.D.At(i, j)))
			}
		}
		opts := DefaultMantelOptions()
		opts.Correlation = Spearman
		res, err := Mantel(x, &y, opts)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Statistic, 1e-12)
	})

	t.Run("permutation p-value is reproducible", func(t *testing.T) {
		opts := DefaultMantelOptions()
		opts.Permutations = 99
		a, b := mustDM(t, kite(0, 0, 1)), mustDM(t, bent())

		first, err := Mantel(a, b, opts)
		require.NoError(t, err)
		second, err := Mantel(a, b, opts)
		require.NoError(t, err)

		assert.Greater(t, first.PValue, 0.0)
		assert.LessOrEqual(t, first.PValue, 1.0)
		assert.Equal(t, first.PValue, second.PValue)
	})
}

func TestRank(t *testing.T) {
	assert.Equal(t, []float64{3, 1.5, 1.5, 4}, rank([]float64{2, 1, 1, 5}))
	assert.Empty(t, rank(nil))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
		ok   bool
	}{
		{"parallel", []float64{1, 2}, []float64{2, 4}, 1, true},
		{"orthogonal", []float64{1, 0}, []float64{0, 3}, 0, true},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1, true},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0, false},
		{"zero norm", []float64{0, 0}, []float64{1, 2}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CosineSimilarity(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEngineScore(t *testing.T) {
	e := NewEngine()

	t.Run("laplacian of identical poses is 1", func(t *testing.T) {
		s, ok := e.ComparePoses(Laplacian, kite(0, 0, 1), kite(0, 0, 1))
		require.True(t, ok)
		assert.InDelta(t, 1.0, s, 1e-12)
	})

	t.Run("laplacian topology mismatch is unavailable", func(t *testing.T) {
		low := kite(0, 0, 1)
		low[2].Confidence = 0
		_, ok := e.ComparePoses(Laplacian, kite(0, 0, 1), low)
		assert.False(t, ok)
	})

	t.Run("missing pose is unavailable", func(t *testing.T) {
		for _, m := range []Method{Distance, Cosine, Laplacian} {
			_, ok := e.ComparePoses(m, nil, kite(0, 0, 1))
			assert.False(t, ok, m.String())
		}
	})

	t.Run("wrong representation kind is unavailable", func(t *testing.T) {
		v, ok := e.Represent(Cosine, kite(0, 0, 1))
		require.True(t, ok)
		_, ok = e.Score(Distance, v, v)
		assert.False(t, ok)
	})

	t.Run("keypoint count mismatch is unavailable", func(t *testing.T) {
		_, ok := e.ComparePoses(Distance, kite(0, 0, 1), kite(0, 0, 1)[:3])
		assert.False(t, ok)
		_, ok = e.ComparePoses(Cosine, kite(0, 0, 1), kite(0, 0, 1)[:3])
		assert.False(t, ok)
	})
}

func TestSelfMatrix(t *testing.T) {
	e := NewEngine()
	// frames 0 and 1 identical, frame 2 shifted, frame 3 missing
	seq := slots(kite(0, 0, 1), kite(0, 0, 1), kite(5, 5, 1), nil, bent())

	for _, m := range []Method{Distance, Cosine, Laplacian} {
		t.Run(m.String(), func(t *testing.T) {
			out := e.SelfMatrix(seq, m)
			r, c := out.Dims()
			require.Equal(t, 5, r)
			require.Equal(t, 5, c)

			for i := range r {
				assert.Equal(t, 1.0, out.At(i, i))
				for j := range c {
					assert.Equal(t, out.At(i, j), out.At(j, i), "cell (%d,%d)", i, j)
				}
			}
			for j := range c {
				if j != 3 {
					assert.Equal(t, 0.0, out.At(3, j))
				}
			}
			assert.InDelta(t, 1.0, out.At(0, 1), 1e-9)
		})
	}

	t.Run("shift changes cosine but not distance", func(t *testing.T) {
		dist := e.SelfMatrix(seq, Distance)
		cos := e.SelfMatrix(seq, Cosine)
		assert.InDelta(t, 1.0, dist.At(0, 2), 1e-9)
		assert.Less(t, cos.At(0, 2), 1.0)
	})
}

type countingProgress struct {
	added    atomic.Int64
	finished atomic.Int64
}

func (c *countingProgress) Add(n int) error {
	c.added.Add(int64(n))
	return nil
}

func (c *countingProgress) Finish() error {
	c.finished.Add(1)
	return nil
}

func randomPoses(n int, seed uint64) []pose.Slot {
	rng := rand.New(rand.NewPCG(seed, seed))
	poses := make([]pose.Pose, n)
	for i := range poses {
		p := make(pose.Pose, 6)
		for k := range p {
			p[k] = pose.Keypoint{X: rng.Float64() * 10, Y: rng.Float64() * 10, Confidence: 0.9}
		}
		poses[i] = p
	}
	return slots(poses...)
}

func TestSelfMatrixWorkersAndProgress(t *testing.T) {
	e := NewEngine()
	seq := randomPoses(12, 7)

	serial := e.SelfMatrix(seq, Distance)
	progress := &countingProgress{}
	parallel := e.SelfMatrix(seq, Distance, WithWorkers(4), WithProgress(progress))

	assert.True(t, mat.Equal(serial, parallel))
	assert.Equal(t, int64(12), progress.added.Load())
	assert.Equal(t, int64(1), progress.finished.Load())
}

func TestCrossMatrix(t *testing.T) {
	e := NewEngine()
	a := slots(kite(0, 0, 1), bent())
	b := slots(kite(0, 0, 2), nil, bent())

	out := e.CrossMatrix(a, b, Distance)
	r, c := out.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)

	assert.InDelta(t, 1.0, out.At(0, 0), 1e-9)
	assert.Equal(t, 0.0, out.At(0, 1))
	assert.InDelta(t, 1.0, out.At(1, 2), 1e-9)
	assert.InDelta(t, out.At(0, 2), out.At(1, 0), 1e-12)

	empty := e.CrossMatrix(nil, b, Distance)
	assert.True(t, empty.IsEmpty())
}

type diagonalAligner struct{}

func (diagonalAligner) Align(a, b []posematrix.Representation, score ScoreFunc) (*Alignment, error) {
	n := min(len(a), len(b))
	out := &Alignment{}
	for i := range n {
		out.Path = append(out.Path, AlignPoint{A: i, B: i})
		out.Score += score(a[i], b[i])
	}
	return out, nil
}

func TestCompareSequences(t *testing.T) {
	e := NewEngine()
	a := pose.Sequence{pose.NewFrame(0, kite(0, 0, 1)), pose.NewFrame(1, bent()), pose.NewFrame(2)}
	b := pose.Sequence{pose.NewFrame(0, kite(1, 1, 2)), pose.NewFrame(1, bent()), pose.NewFrame(2, bent())}

	alignment, err := e.CompareSequences(a, b, pose.Raw, diagonalAligner{})
	require.NoError(t, err)
	assert.Len(t, alignment.Path, 3)
	assert.InDelta(t, 2.0, alignment.Score, 1e-9)

	_, err = e.CompareSequences(a, b, pose.Raw, nil)
	assert.Error(t, err)
}

func BenchmarkSelfMatrix(b *testing.B) {
	e := NewEngine()
	for _, n := range []int{50, 200} {
		seq := randomPoses(n, 1)
		b.Run(fmt.Sprintf("Poses%d", n), func(b *testing.B) {
			for b.Loop() {
				_ = e.SelfMatrix(seq, Distance, WithWorkers(4))
			}
		})
	}
}
