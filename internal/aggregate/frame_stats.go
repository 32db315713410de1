// Package aggregate reduces per-figure measurements to per-frame
// statistics for group videos.
package aggregate

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
	"github.com/tensorplex-labs/choreo/internal/similarity"
	"github.com/tensorplex-labs/choreo/internal/utils/nanstat"
)

// FrameSimilarityStats scores every unordered pair of figures within each
// frame and returns the NaN-skipping mean and population standard deviation
// of those scores. A pair that cannot be compared counts as NaN, so frames
// with fewer than two comparable figures yield NaN for both values.
func FrameSimilarityStats(seq pose.Sequence, list pose.FigureList, m similarity.Method, e *similarity.Engine) (means, stds []float64) {
	if e == nil {
		e = similarity.NewEngine()
	}
	means = make([]float64, len(seq))
	stds = make([]float64, len(seq))

	for f, frame := range seq {
		figures := frame.Poses(list)
		reps := make([]posematrix.Representation, len(figures))
		for p := range figures {
			if ps, ok := frame.Pose(list, p); ok {
				reps[p], _ = e.Represent(m, ps)
			}
		}

		var scores []float64
		for i := range reps {
			for j := i + 1; j < len(reps); j++ {
				score := math.NaN()
				if s, ok := e.Score(m, reps[i], reps[j]); ok {
					score = s
				}
				scores = append(scores, score)
			}
		}
		means[f], stds[f] = nanstat.MeanStd(scores)

		log.Trace().
			Int("frame", f).
			Int("pairs", len(scores)).
			Float64("mean", means[f]).
			Msg("inter-figure similarity")
	}
	return means, stds
}
