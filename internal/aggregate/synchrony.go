package aggregate

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/utils/nanstat"
)

const (
	DefaultSyncMinClip   = 0.2
	DefaultSyncThreshold = 0.9
)

// SynchronyOptions controls Synchrony.
type SynchronyOptions struct {
	WindowLength  int
	Window        signal.Window
	Interpolation signal.Interpolation
	MinClip       float64
	Threshold     float64
}

// DefaultSynchronyOptions returns a five sample flat window, linear gap
// filling and the default clip and threshold.
func DefaultSynchronyOptions() SynchronyOptions {
	return SynchronyOptions{
		WindowLength:  5,
		Window:        signal.Flat,
		Interpolation: signal.Linear,
		MinClip:       DefaultSyncMinClip,
		Threshold:     DefaultSyncThreshold,
	}
}

// SynchronyProfile describes how closely a group's poses agree over time.
type SynchronyProfile struct {
	Times []float64

	Means []float64
	Upper []float64
	Lower []float64

	SmoothedMeans []float64
	SmoothedUpper []float64
	SmoothedLower []float64

	Mean         float64
	Std          float64
	SmoothedMean float64
	SmoothedStd  float64

	// fraction of frames whose mean similarity exceeds the threshold
	OverThreshold         float64
	SmoothedOverThreshold float64
}

// Synchrony builds a profile from per-frame inter-figure similarity means
// and standard deviations. The band around each mean is kept inside
// [opts.MinClip, 1]. Gaps are filled before smoothing; the summary values
// skip NaN.
func Synchrony(means, stds, timestamps []float64, opts SynchronyOptions) (*SynchronyProfile, error) {
	frames := min(len(means), len(stds), len(timestamps))
	if frames == 0 {
		return nil, errs.Invalid("synchrony: no frames")
	}

	p := &SynchronyProfile{
		Times: append([]float64(nil), timestamps[:frames]...),
		Means: append([]float64(nil), means[:frames]...),
		Upper: make([]float64, frames),
		Lower: make([]float64, frames),
	}
	for i := range frames {
		m, s := means[i], stds[i]
		p.Upper[i] = math.Max(opts.MinClip, math.Min(1, m+s))
		p.Lower[i] = math.Max(opts.MinClip, math.Max(0, m-s))
	}

	var err error
	smooth := func(series []float64) []float64 {
		if err != nil {
			return nil
		}
		var out []float64
		out, err = signal.Smooth(signal.FillGaps(series, opts.Interpolation), opts.WindowLength, opts.Window)
		return out
	}
	p.SmoothedMeans = smooth(p.Means)
	p.SmoothedUpper = smooth(p.Upper)
	p.SmoothedLower = smooth(p.Lower)
	if err != nil {
		return nil, err
	}

	p.Mean, p.Std = nanstat.MeanStd(p.Means)
	p.SmoothedMean, p.SmoothedStd = nanstat.MeanStd(p.SmoothedMeans)
	p.OverThreshold = fractionAbove(p.Means, opts.Threshold)
	p.SmoothedOverThreshold = fractionAbove(p.SmoothedMeans, opts.Threshold)

	log.Debug().
		Int("frames", frames).
		Float64("mean", p.Mean).
		Float64("over_threshold", p.OverThreshold).
		Msg("synchrony profile")
	return p, nil
}

// fractionAbove counts NaN as not above.
func fractionAbove(xs []float64, threshold float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	n := 0
	for _, v := range xs {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(xs))
}
