package movement

import (
	"math"

	"github.com/tensorplex-labs/choreo/internal/utils/nanstat"
)

// KeypointStats summarizes per-keypoint movement over every measured
// transition of every figure. Only Distance results carry keypoint detail;
// other results yield empty slices.
type KeypointStats struct {
	Means []float64
	Stds  []float64
}

// SummarizeKeypoints computes the NaN-skipping mean and population standard
// deviation of each keypoint's movement.
func SummarizeKeypoints(r *Result) KeypointStats {
	keypoints := 0
	for _, row := range r.Movements {
		for _, m := range row {
			keypoints = max(keypoints, len(m.Keypoints))
		}
	}

	samples := make([][]float64, keypoints)
	for _, row := range r.Movements {
		for _, m := range row {
			if !m.Valid() {
				continue
			}
			for k := range keypoints {
				v := math.NaN()
				if k < len(m.Keypoints) {
					v = m.Keypoints[k]
				}
				samples[k] = append(samples[k], v)
			}
		}
	}

	out := KeypointStats{
		Means: make([]float64, keypoints),
		Stds:  make([]float64, keypoints),
	}
	for k, vs := range samples {
		out.Means[k], out.Stds[k] = nanstat.MeanStd(vs)
	}
	return out
}
