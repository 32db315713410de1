package pose

import (
	"math"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(offset, conf float64) Pose {
	return Pose{
		{X: offset, Y: offset, Confidence: conf},
		{X: offset + 1, Y: offset, Confidence: conf},
		{X: offset + 1, Y: offset + 1, Confidence: conf},
		{X: offset, Y: offset + 1, Confidence: conf},
	}
}

func TestPoseHelpers(t *testing.T) {
	p := square(0, 0.8)

	assert.False(t, p.Empty())
	assert.InDelta(t, 0.8, p.MeanConfidence(), 1e-12)
	assert.Equal(t, []float64{0, 0, 1, 0, 1, 1, 0, 1}, p.XY())
	assert.Equal(t, p, FromFlat(p.Flat()))

	assert.True(t, Pose(nil).Empty())
	assert.True(t, math.IsNaN(Pose(nil).MeanConfidence()))
}

func TestFramePoseLookup(t *testing.T) {
	frame := NewFrame(0.5, square(0, 0.9), nil)
	frame.Figures[Aligned] = []Pose{square(1, 0.9)}

	t.Run("present figure", func(t *testing.T) {
		p, ok := frame.Pose(Raw, 0)
		require.True(t, ok)
		assert.Equal(t, square(0, 0.9), p)
	})

	t.Run("empty pose is absent", func(t *testing.T) {
		_, ok := frame.Pose(Raw, 1)
		assert.False(t, ok)
	})

	t.Run("out of range is absent", func(t *testing.T) {
		_, ok := frame.Pose(Raw, 5)
		assert.False(t, ok)
		_, ok = frame.Pose(Raw, -1)
		assert.False(t, ok)
	})

	t.Run("missing list falls back to raw", func(t *testing.T) {
		p, ok := frame.Pose(Flipped, 0)
		require.True(t, ok)
		assert.Equal(t, square(0, 0.9), p)
	})

	t.Run("existing list does not fall back", func(t *testing.T) {
		p, ok := frame.Pose(Aligned, 0)
		require.True(t, ok)
		assert.Equal(t, square(1, 0.9), p)
		_, ok = frame.Pose(Aligned, 1)
		assert.False(t, ok)
	})
}

func TestGrid(t *testing.T) {
	seq := Sequence{
		NewFrame(0, square(0, 0.9)),
		NewFrame(1, square(0, 0.9), square(2, 0.9), square(4, 0.9)),
		NewFrame(2),
	}

	assert.Equal(t, 3, seq.FigureCount(Raw))

	g := NewGrid(seq, Raw)
	assert.Equal(t, 3, g.Frames())
	assert.Equal(t, 3, g.Figures())
	for _, row := range g.Slots {
		assert.Len(t, row, 3)
	}

	assert.True(t, g.At(0, 0).Present)
	assert.False(t, g.At(0, 1).Present)
	assert.False(t, g.At(2, 0).Present)
	assert.False(t, g.At(9, 9).Present)
	assert.Equal(t, []float64{0, 1, 2}, g.Times)

	col := g.Column(1)
	assert.Equal(t, []bool{false, true, false}, []bool{col[0].Present, col[1].Present, col[2].Present})

	figures, poses := g.Present(1)
	assert.Equal(t, []int{0, 1, 2}, figures)
	assert.Len(t, poses, 3)
}

func TestDescriptorMap(t *testing.T) {
	m := NewDescriptorMap[int](4)
	m.Set(Descriptor{Frame: 3, Figure: 1}, 7)
	m.Set(Descriptor{Frame: 0, Figure: 0}, 2)
	m.Set(Descriptor{Frame: 3, Figure: 1}, 9)

	assert.Equal(t, 2, m.Len())
	v, ok := m.Get(Descriptor{Frame: 3, Figure: 1})
	require.True(t, ok)
	assert.Equal(t, 9, v)
	assert.False(t, m.Has(Descriptor{Frame: 1, Figure: 1}))

	assert.Equal(t, []Descriptor{{3, 1}, {0, 0}}, m.Keys())

	var visited []int
	m.Range(func(_ Descriptor, v int) bool {
		visited = append(visited, v)
		return false
	})
	assert.Equal(t, []int{9}, visited)

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[1].Value)
}

func TestFigureListNames(t *testing.T) {
	for _, list := range FigureLists() {
		parsed, err := ParseFigureList(list.String())
		require.NoError(t, err)
		assert.Equal(t, list, parsed)
	}

	_, err := ParseFigureList("sideways_figures")
	assert.Error(t, err)
}

func TestFrameJSON(t *testing.T) {
	raw := []byte(`{"time":1.5,"figures":[[[0,0,0.9],[1,0,0.8]],null],"aligned_figures":[[[0,0,1],[1,1,1]]]}`)

	var frame Frame
	require.NoError(t, sonic.Unmarshal(raw, &frame))

	assert.Equal(t, 1.5, frame.Time)
	assert.Len(t, frame.Figures[Raw], 2)
	assert.True(t, frame.Figures[Raw][1].Empty())
	assert.Equal(t, Keypoint{X: 1, Y: 1, Confidence: 1}, frame.Figures[Aligned][0][1])
	_, hasFlipped := frame.Figures[Flipped]
	assert.False(t, hasFlipped)

	encoded, err := sonic.Marshal(frame)
	require.NoError(t, err)
	var again Frame
	require.NoError(t, sonic.Unmarshal(encoded, &again))
	assert.Equal(t, frame.Figures[Aligned], again.Figures[Aligned])

	var bad Keypoint
	assert.Error(t, sonic.Unmarshal([]byte(`[1,2]`), &bad))
}
