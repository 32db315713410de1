package movement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

func kite(dx, scale, conf float64) pose.Pose {
	base := [][2]float64{{0, 0}, {2, 0.5}, {1, 3}, {-1, 1.5}}
	p := make(pose.Pose, len(base))
	for i, b := range base {
		p[i] = pose.Keypoint{X: b[0]*scale + dx, Y: b[1] * scale, Confidence: conf}
	}
	return p
}

func TestExtractThreeFrames(t *testing.T) {
	seq := pose.Sequence{
		pose.NewFrame(0.0, kite(0, 1, 0.9)),
		pose.NewFrame(0.1, kite(0, 1, 0.9)),
		pose.NewFrame(0.2, kite(0, 1.5, 0.9)),
	}

	res, err := NewExtractor().Extract(seq, AllFigures)
	require.NoError(t, err)

	require.Equal(t, 1, res.FigureCount)
	series := res.Series(0)
	require.Len(t, series, 2)
	assert.InDelta(t, 0.0, series[0], 1e-12)
	assert.Greater(t, series[1], 0.0)
	assert.Equal(t, []float64{0.0, 0.1}, res.Timestamps)

	m := res.Movements[1][0]
	require.Len(t, m.Keypoints, 4)
	var sum float64
	for _, v := range m.Keypoints {
		sum += v
	}
	assert.InDelta(t, m.Total, sum, 1e-12)
}

func TestExtractTranslationIsStill(t *testing.T) {
	seq := pose.Sequence{
		pose.NewFrame(0, kite(0, 1, 0.9)),
		pose.NewFrame(1, kite(7, 1, 0.9)),
	}
	res, err := NewExtractor().Extract(seq, AllFigures)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Series(0)[0], 1e-12)
}

func TestExtractConfidenceGate(t *testing.T) {
	tests := []struct {
		name       string
		confA      float64
		confB      float64
		measurable bool
	}{
		{"both above", 0.9, 0.8, true},
		{"exactly at threshold", 0.7, 0.9, false},
		{"second below", 0.9, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := pose.Sequence{
				pose.NewFrame(0, kite(0, 1, tt.confA)),
				pose.NewFrame(1, kite(0, 2, tt.confB)),
			}
			res, err := NewExtractor().Extract(seq, AllFigures)
			require.NoError(t, err)
			assert.Equal(t, tt.measurable, !math.IsNaN(res.Series(0)[0]))
		})
	}
}

func TestExtractMultipleFigures(t *testing.T) {
	seq := pose.Sequence{
		pose.NewFrame(0, kite(0, 1, 0.9)),
		pose.NewFrame(1, kite(0, 1, 0.9), kite(10, 1, 0.9)),
		pose.NewFrame(2, kite(0, 2, 0.9), kite(10, 1, 0.9)),
		pose.NewFrame(3),
	}

	t.Run("all figures", func(t *testing.T) {
		res, err := NewExtractor().Extract(seq, AllFigures)
		require.NoError(t, err)
		assert.Equal(t, 2, res.FigureCount)
		assert.Equal(t, []int{0, 1}, res.Figures)
		require.Len(t, res.Movements, 3)

		second := res.Series(1)
		assert.True(t, math.IsNaN(second[0]), "figure 1 missing in frame 0")
		assert.InDelta(t, 0.0, second[1], 1e-12)
		assert.True(t, math.IsNaN(second[2]), "frame 3 is empty")

		first := res.Series(0)
		assert.Greater(t, first[1], 0.0)
		assert.Len(t, res.AllSeries(), 2)
	})

	t.Run("pinned figure", func(t *testing.T) {
		res, err := NewExtractor().Extract(seq, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.FigureCount)
		assert.Equal(t, []int{1}, res.Figures)
		assert.True(t, math.IsNaN(res.Series(0)[0]))
		assert.InDelta(t, 0.0, res.Series(0)[1], 1e-12)
	})

	t.Run("pinned figure beyond data", func(t *testing.T) {
		res, err := NewExtractor().Extract(seq, 5)
		require.NoError(t, err)
		for _, v := range res.Series(0) {
			assert.True(t, math.IsNaN(v))
		}
	})
}

func TestExtractLaplacian(t *testing.T) {
	seq := pose.Sequence{
		pose.NewFrame(0, kite(0, 1, 0.9)),
		pose.NewFrame(1, kite(3, 1, 0.9)),
	}
	res, err := NewExtractor(WithMethod(similarity.Laplacian)).Extract(seq, AllFigures)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Series(0)[0], 1e-12)
	assert.Empty(t, res.Movements[0][0].Keypoints)
}

func TestExtractErrors(t *testing.T) {
	seq := pose.Sequence{pose.NewFrame(0, kite(0, 1, 0.9)), pose.NewFrame(1, kite(0, 1, 0.9))}

	_, err := NewExtractor(WithMethod(similarity.Cosine)).Extract(seq, AllFigures)
	assert.True(t, errs.IsInvalid(err))

	_, err = NewExtractor().Extract(seq, -2)
	assert.True(t, errs.IsInvalid(err))

	res, err := NewExtractor().Extract(seq[:1], AllFigures)
	require.NoError(t, err)
	assert.Empty(t, res.Movements)
	assert.Empty(t, res.Series(0))
}

func TestSummarizeKeypoints(t *testing.T) {
	seq := pose.Sequence{
		pose.NewFrame(0, kite(0, 1, 0.9)),
		pose.NewFrame(1, kite(0, 1, 0.9)),
		pose.NewFrame(2, kite(0, 2, 0.9)),
		pose.NewFrame(3, kite(0, 2, 0.1)),
	}
	res, err := NewExtractor().Extract(seq, AllFigures)
	require.NoError(t, err)

	stats := SummarizeKeypoints(res)
	require.Len(t, stats.Means, 4)
	for k := range 4 {
		// one still and one moving transition, the gated one is skipped
		moving := res.Movements[1][0].Keypoints[k]
		assert.InDelta(t, moving/2, stats.Means[k], 1e-12)
		assert.InDelta(t, moving/2, stats.Stds[k], 1e-12)
	}
}
