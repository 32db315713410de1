package nanstat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanStd(t *testing.T) {
	nan := math.NaN()

	m, s := MeanStd([]float64{1, nan, 3})
	assert.InDelta(t, 2.0, m, 1e-12)
	assert.InDelta(t, 1.0, s, 1e-12)

	m, s = MeanStd([]float64{nan, nan})
	assert.True(t, math.IsNaN(m))
	assert.True(t, math.IsNaN(s))

	assert.InDelta(t, 0.0, Std([]float64{5}), 1e-12)
	assert.InDelta(t, 5.0, Mean([]float64{5, nan}), 1e-12)

	assert.True(t, AllNaN([]float64{nan}))
	assert.True(t, AllNaN(nil))
	assert.False(t, AllNaN([]float64{nan, 0}))
	assert.Equal(t, []float64{0}, Finite([]float64{nan, 0}))
}
