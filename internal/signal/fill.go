// Package signal conditions sparse per-frame series: interior gap filling
// and centered window smoothing.
package signal

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/tensorplex-labs/choreo/internal/errs"
)

// Interpolation selects how interior gaps are filled.
type Interpolation int

const (
	Linear Interpolation = iota
	// Next fills a gap with the next known sample.
	Next
	Akima
	FritschButland
	NaturalCubic
)

var interpolationNames = [...]string{
	Linear:         "linear",
	Next:           "next",
	Akima:          "akima",
	FritschButland: "fritsch_butland",
	NaturalCubic:   "natural_cubic",
}

func (k Interpolation) String() string {
	if k < 0 || int(k) >= len(interpolationNames) {
		return "unknown"
	}
	return interpolationNames[k]
}

// ParseInterpolation maps a name such as "linear" to its Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range interpolationNames {
		if n == name {
			return Interpolation(i), nil
		}
	}
	return Linear, errs.Invalid("unknown interpolation %q", name)
}

func (k Interpolation) predictor() interp.FittablePredictor {
	switch k {
	case Next:
		return &interp.PiecewiseConstant{}
	case Akima:
		return &interp.AkimaSpline{}
	case FritschButland:
		return &interp.FritschButland{}
	case NaturalCubic:
		return &interp.NaturalCubic{}
	}
	return &interp.PiecewiseLinear{}
}

// FillGaps returns a copy of series with NaN samples strictly between the
// first and last known samples replaced by interpolated values. Leading and
// trailing NaN runs are kept. Series with fewer than two known samples are
// returned unchanged.
func FillGaps(series []float64, kind Interpolation) []float64 {
	out := make([]float64, len(series))
	copy(out, series)

	var xs, ys []float64
	for i, v := range series {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(xs) < 2 || len(xs) == len(series) {
		return out
	}

	p := kind.predictor()
	if err := p.Fit(xs, ys); err != nil {
		linear := &interp.PiecewiseLinear{}
		_ = linear.Fit(xs, ys)
		p = linear
	}

	first, last := int(xs[0]), int(xs[len(xs)-1])
	for i := first + 1; i < last; i++ {
		if math.IsNaN(out[i]) {
			out[i] = p.Predict(float64(i))
		}
	}
	return out
}
