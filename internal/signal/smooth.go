package signal

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/choreo/internal/errs"
)

// Window is the smoothing kernel shape.
type Window int

const (
	Flat Window = iota
	Hanning
	Hamming
	Bartlett
	Blackman
)

var windowNames = [...]string{
	Flat:     "flat",
	Hanning:  "hanning",
	Hamming:  "hamming",
	Bartlett: "bartlett",
	Blackman: "blackman",
}

func (w Window) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return "unknown"
	}
	return windowNames[w]
}

// ParseWindow maps a name such as "hanning" to its Window.
func ParseWindow(name string) (Window, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range windowNames {
		if n == name {
			return Window(i), nil
		}
	}
	return Flat, errs.Invalid("unknown smoothing window %q", name)
}

// MinSmoothLength is the shortest series Smooth accepts.
const MinSmoothLength = 3

// Kernel returns the window weights of length n normalized to sum to 1.
func (w Window) Kernel(n int) []float64 {
	k := make([]float64, n)
	for i := range k {
		k[i] = 1
	}
	switch w {
	case Hanning:
		window.Hann(k)
	case Hamming:
		window.Hamming(k)
	case Bartlett:
		window.Triangular(k)
	case Blackman:
		window.Blackman(k)
	}
	if sum := floats.Sum(k); sum != 0 {
		floats.Scale(1/sum, k)
	}
	return k
}

// Smooth convolves series with a normalized window of windowLen samples.
// The series is reflected windowLen-1 samples at each end first and the
// result is trimmed back to the input length, centered on each sample.
// Windows shorter than three samples leave the series unchanged.
func Smooth(series []float64, windowLen int, w Window) ([]float64, error) {
	n := len(series)
	if n < windowLen {
		return nil, errs.Invalid("smooth: series length %d is shorter than window %d", n, windowLen)
	}
	if n < MinSmoothLength {
		return nil, errs.Invalid("smooth: series length %d is shorter than %d", n, MinSmoothLength)
	}

	out := make([]float64, n)
	if windowLen < MinSmoothLength {
		log.Warn().
			Int("window", windowLen).
			Msg("smoothing window shorter than 3 samples, returning series unchanged")
		copy(out, series)
		return out, nil
	}

	pad := windowLen - 1
	padded := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		padded = append(padded, series[i])
	}
	padded = append(padded, series...)
	for i := n - 2; i >= n-1-pad; i-- {
		padded = append(padded, series[i])
	}

	kernel := w.Kernel(windowLen)
	front := (windowLen - 1) / 2
	for t := range n {
		k := front + t
		var acc float64
		for i, weight := range kernel {
			acc += weight * padded[k+pad-i]
		}
		out[t] = acc
	}
	return out, nil
}

// WindowLength derives a smoothing window from the video frame rate: half a
// second of frames, never fewer than minLen.
func WindowLength(fps float64, minLen int) int {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return minLen
	}
	return max(minLen, int(math.Round(fps/2)))
}
