package clustering

import (
	"math"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/errs"
)

// Noise labels a point that belongs to no cluster.
const Noise = -1

// DefaultXi is the minimum relative reachability drop that bounds a cluster.
const DefaultXi = 0.05

// roundDecimals matches the 15 decimal rounding applied to distances so ties
// resolve the same way on every run.
const roundDecimals = 1e15

// OPTICS orders points by density reachability and extracts clusters with
// the xi steep-area method, using squared Euclidean distances.
type OPTICS struct {
	// MinSamples is the neighbourhood size, counting the point itself, that
	// makes a point a core point.
	MinSamples int
	// MinClusterSize is the smallest cluster kept. Zero means MinSamples.
	MinClusterSize int
	// Xi is the steepness threshold; zero means DefaultXi.
	Xi float64
	// PredecessorCorrection trims cluster ends whose predecessor lies
	// outside the cluster.
	PredecessorCorrection bool
}

// NewOPTICS returns an OPTICS configuration with default xi extraction.
func NewOPTICS(minSamples int) *OPTICS {
	return &OPTICS{
		MinSamples:            minSamples,
		Xi:                    DefaultXi,
		PredecessorCorrection: true,
	}
}

// OrderingResult is a fitted OPTICS model.
type OrderingResult struct {
	Labels        []int
	Ordering      []int
	Reachability  []float64
	CoreDistances []float64
	Predecessor   []int
	// Clusters are the extracted [start, end] ranges into Ordering.
	Clusters [][2]int
}

func roundPrecision(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.RoundToEven(v*roundDecimals) / roundDecimals
}

func sqEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Fit clusters the rows of features.
func (o *OPTICS) Fit(features [][]float64) (*OrderingResult, error) {
	n := len(features)
	if o.MinSamples < 2 || o.MinSamples > n {
		return nil, errs.Invalid("optics: min samples %d must be in [2, %d]", o.MinSamples, n)
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return nil, errs.Invalid("optics: feature row %d has %d values, expected %d", i, len(row), width)
		}
	}
	minClusterSize := o.MinClusterSize
	if minClusterSize <= 0 {
		minClusterSize = o.MinSamples
	}
	if minClusterSize < 2 || minClusterSize > n {
		return nil, errs.Invalid("optics: min cluster size %d must be in [2, %d]", minClusterSize, n)
	}
	xi := o.Xi
	if xi == 0 {
		xi = DefaultXi
	}
	if xi < 0 || xi >= 1 {
		return nil, errs.Invalid("optics: xi %v must be in [0, 1)", xi)
	}

	res := o.graph(features)
	res.Clusters = xiClusters(res, xi, o.MinSamples, minClusterSize, o.PredecessorCorrection)
	res.Labels = xiLabels(res.Ordering, res.Clusters)

	if log.Debug().Enabled() {
		clusters := 0
		noise := 0
		for _, l := range res.Labels {
			clusters = max(clusters, l+1)
			if l == Noise {
				noise++
			}
		}
		log.Debug().
			Int("points", n).
			Int("min_samples", o.MinSamples).
			Int("clusters", clusters).
			Int("noise", noise).
			Msg("optics fit complete")
	}
	return res, nil
}

func (o *OPTICS) graph(features [][]float64) *OrderingResult {
	n := len(features)
	res := &OrderingResult{
		Ordering:      make([]int, 0, n),
		Reachability:  make([]float64, n),
		CoreDistances: make([]float64, n),
		Predecessor:   make([]int, n),
	}

	dists := make([]float64, n)
	for i := range n {
		for j := range n {
			dists[j] = sqEuclidean(features[i], features[j])
		}
		slices.Sort(dists)
		res.CoreDistances[i] = roundPrecision(dists[o.MinSamples-1])
		res.Reachability[i] = math.Inf(1)
		res.Predecessor[i] = -1
	}

	processed := make([]bool, n)
	for range n {
		point := -1
		for i := range n {
			if processed[i] {
				continue
			}
			if point < 0 || res.Reachability[i] < res.Reachability[point] {
				point = i
			}
		}
		processed[point] = true
		res.Ordering = append(res.Ordering, point)
		if math.IsInf(res.CoreDistances[point], 1) {
			continue
		}
		for j := range n {
			if processed[j] {
				continue
			}
			r := roundPrecision(math.Max(sqEuclidean(features[point], features[j]), res.CoreDistances[point]))
			if r < res.Reachability[j] {
				res.Reachability[j] = r
				res.Predecessor[j] = point
			}
		}
	}
	return res
}

type steepDownArea struct {
	start, end int
	mib        float64
}

// extendRegion grows a steep area from start while at most minSamples
// consecutive non-steep points keep the same direction.
func extendRegion(steep, opposite []bool, start, minSamples int) int {
	nonSteep := 0
	end := start
	for i := start; i < len(steep); i++ {
		switch {
		case steep[i]:
			nonSteep = 0
			end = i
		case !opposite[i]:
			nonSteep++
			if nonSteep > minSamples {
				return end
			}
		default:
			return end
		}
	}
	return end
}

func updateFilterSDAs(sdas []*steepDownArea, mib, xiComplement float64, plot []float64) []*steepDownArea {
	if math.IsInf(mib, 0) {
		return nil
	}
	kept := sdas[:0:0]
	for _, sda := range sdas {
		if mib <= plot[sda.start]*xiComplement {
			sda.mib = math.Max(sda.mib, mib)
			kept = append(kept, sda)
		}
	}
	return kept
}

// correctPredecessor shrinks [s, e] from the right until the end point's
// predecessor is inside the range. ok is false if nothing is left.
func correctPredecessor(plot []float64, pred, ordering []int, s, e int) (int, int, bool) {
	for s < e {
		if plot[s] > plot[e] {
			return s, e, true
		}
		pe := pred[e]
		for i := s; i < e; i++ {
			if pe == ordering[i] {
				return s, e, true
			}
		}
		e--
	}
	return 0, 0, false
}

func xiClusters(res *OrderingResult, xi float64, minSamples, minClusterSize int, predecessorCorrection bool) [][2]int {
	n := len(res.Ordering)
	plot := make([]float64, n+1)
	pred := make([]int, n)
	for i, p := range res.Ordering {
		plot[i] = res.Reachability[p]
		pred[i] = res.Predecessor[p]
	}
	plot[n] = math.Inf(1)

	xiComplement := 1 - xi
	steepUp := make([]bool, n)
	steepDown := make([]bool, n)
	downward := make([]bool, n)
	upward := make([]bool, n)
	for i := range n {
		ratio := plot[i] / plot[i+1]
		// NaN ratios compare false everywhere
		steepUp[i] = ratio <= xiComplement
		steepDown[i] = ratio >= 1/xiComplement
		downward[i] = ratio > 1
		upward[i] = ratio < 1
	}

	var (
		sdas     []*steepDownArea
		clusters [][2]int
		index    int
		mib      float64
	)
	for steepIndex := range n {
		if !steepUp[steepIndex] && !steepDown[steepIndex] {
			continue
		}
		if steepIndex < index {
			continue
		}
		for _, v := range plot[index : steepIndex+1] {
			mib = math.Max(mib, v)
		}

		if steepDown[steepIndex] {
			sdas = updateFilterSDAs(sdas, mib, xiComplement, plot)
			end := extendRegion(steepDown, upward, steepIndex, minSamples)
			sdas = append(sdas, &steepDownArea{start: steepIndex, end: end})
			index = end + 1
			mib = plot[index]
			continue
		}

		sdas = updateFilterSDAs(sdas, mib, xiComplement, plot)
		uStart := steepIndex
		uEnd := extendRegion(steepUp, downward, uStart, minSamples)
		index = uEnd + 1
		mib = plot[index]

		var found [][2]int
		for _, d := range sdas {
			cStart, cEnd := d.start, uEnd

			if plot[cEnd+1]*xiComplement < d.mib {
				continue
			}

			dMax := plot[d.start]
			if dMax*xiComplement >= plot[cEnd+1] {
				for plot[cStart+1] > plot[cEnd+1] && cStart < d.end {
					cStart++
				}
			} else if plot[cEnd+1]*xiComplement >= dMax {
				for plot[cEnd-1] > dMax && cEnd > uStart {
					cEnd--
				}
			}

			if predecessorCorrection {
				var ok bool
				cStart, cEnd, ok = correctPredecessor(plot, pred, res.Ordering, cStart, cEnd)
				if !ok {
					continue
				}
			}

			if cEnd-cStart+1 < minClusterSize {
				continue
			}
			if cStart > d.end {
				continue
			}
			if cEnd < uStart {
				continue
			}
			found = append(found, [2]int{cStart, cEnd})
		}

		// smaller clusters first
		slices.Reverse(found)
		clusters = append(clusters, found...)
	}
	return clusters
}

// xiLabels labels each cluster range that does not overlap an already
// labelled one, then maps ordering positions back to point indices.
func xiLabels(ordering []int, clusters [][2]int) []int {
	byPosition := make([]int, len(ordering))
	for i := range byPosition {
		byPosition[i] = Noise
	}
	label := 0
	for _, c := range clusters {
		free := true
		for i := c[0]; i <= c[1]; i++ {
			if byPosition[i] != Noise {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := c[0]; i <= c[1]; i++ {
			byPosition[i] = label
		}
		label++
	}

	labels := make([]int, len(ordering))
	for pos, point := range ordering {
		labels[point] = byPosition[pos]
	}
	return labels
}
