package aggregate

import (
	"math"

	"github.com/tensorplex-labs/choreo/internal/utils/nanstat"
)

// DefaultMaxClip caps per-frame movement values.
const DefaultMaxClip = 3.0

func clipped(series []float64, maxClip float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		if v > maxClip {
			v = maxClip
		}
		out[i] = v
	}
	return out
}

// ConsolidateMovements turns per-figure movement series into a frame-major
// table with no gaps between figures. Values above maxClip are clipped,
// figures that never move are dropped, and each frame's measured values are
// packed to the left in figure order. The table is as wide as the largest
// number of figures measured in a single frame; the rest is NaN. The input
// is not modified.
func ConsolidateMovements(series [][]float64, maxClip float64) [][]float64 {
	var (
		valid  [][]float64
		frames int
	)
	for _, s := range series {
		if nanstat.AllNaN(s) {
			continue
		}
		valid = append(valid, clipped(s, maxClip))
		frames = max(frames, len(s))
	}

	width := 0
	packed := make([][]float64, frames)
	for f := range packed {
		var row []float64
		for _, s := range valid {
			if f < len(s) && !math.IsNaN(s[f]) {
				row = append(row, s[f])
			}
		}
		packed[f] = row
		width = max(width, len(row))
	}

	for f, row := range packed {
		out := make([]float64, width)
		n := copy(out, row)
		for i := n; i < width; i++ {
			out[i] = math.NaN()
		}
		packed[f] = out
	}
	return packed
}

// FrameMovementStats is the per-frame spread of movement across figures.
// Frames with no measured figure hold zeros.
type FrameMovementStats struct {
	Means []float64
	Upper []float64
	Lower []float64
	Times []float64
}

// AverageFrameMovements computes, for each frame, the mean movement across
// figures capped at maxClip and a one standard deviation band around it.
// The frame count is the shorter of the first series and timestamps.
func AverageFrameMovements(series [][]float64, timestamps []float64, maxClip float64) FrameMovementStats {
	var out FrameMovementStats
	if len(series) == 0 {
		return out
	}
	frames := min(len(series[0]), len(timestamps))

	out = FrameMovementStats{
		Means: make([]float64, frames),
		Upper: make([]float64, frames),
		Lower: make([]float64, frames),
		Times: append([]float64(nil), timestamps[:frames]...),
	}
	values := make([]float64, 0, len(series))
	for f := range frames {
		values = values[:0]
		for _, s := range series {
			if f < len(s) {
				values = append(values, s[f])
			}
		}
		mean, std := nanstat.MeanStd(values)
		if math.IsNaN(mean) {
			continue
		}
		mean = min(maxClip, mean)
		out.Means[f] = mean
		out.Upper[f] = min(mean+std, maxClip)
		out.Lower[f] = min(mean-std, maxClip)
	}
	return out
}
