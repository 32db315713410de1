// Package nanstat computes summary statistics that skip NaN samples.
package nanstat

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Finite returns the non-NaN values of xs.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MeanStd returns the mean and population standard deviation of the non-NaN
// values of xs, or NaN, NaN when there are none.
func MeanStd(xs []float64) (mean, std float64) {
	finite := Finite(xs)
	if len(finite) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(finite, nil)
}

// Mean is the NaN-skipping arithmetic mean.
func Mean(xs []float64) float64 {
	m, _ := MeanStd(xs)
	return m
}

// Std is the NaN-skipping population standard deviation.
func Std(xs []float64) float64 {
	_, s := MeanStd(xs)
	return s
}

// AllNaN reports whether xs has no usable sample.
func AllNaN(xs []float64) bool {
	for _, v := range xs {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
