package clustering

import (
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// Averages holds one mean pose per cluster, ordered by ascending label.
// Row i of a heatmap refers to Labels[i].
type Averages struct {
	Labels  []int
	Poses   []pose.Pose
	Reps    []*posematrix.DistanceMatrix
	Members [][]pose.Descriptor
}

// Index returns the row of label, or -1.
func (a *Averages) Index(label int) int {
	i, found := slices.BinarySearch(a.Labels, label)
	if !found {
		return -1
	}
	return i
}

// Len is the cluster count.
func (a *Averages) Len() int {
	return len(a.Labels)
}

// ComputeAverages averages the raw coordinates (x, y and confidence) of
// every cluster's members read from list. Members whose keypoint count
// differs from the cluster's first usable member are left out of the mean.
func ComputeAverages(labels []int, descriptors []pose.Descriptor, seq pose.Sequence, list pose.FigureList, b *posematrix.Builder) (*Averages, error) {
	if len(labels) != len(descriptors) {
		return nil, errs.Invalid("averages: %d labels for %d descriptors", len(labels), len(descriptors))
	}

	members := make(map[int][]pose.Descriptor)
	for i, label := range labels {
		if label == Noise {
			continue
		}
		members[label] = append(members[label], descriptors[i])
	}

	avg := &Averages{}
	for label := range members {
		avg.Labels = append(avg.Labels, label)
	}
	slices.Sort(avg.Labels)

	for _, label := range avg.Labels {
		var (
			sum   []float64
			count int
		)
		for _, d := range members[label] {
			if d.Frame < 0 || d.Frame >= len(seq) {
				return nil, errs.Invalid("averages: descriptor %s outside sequence of %d frames", d, len(seq))
			}
			ps, ok := seq[d.Frame].Pose(list, d.Figure)
			if !ok {
				continue
			}
			flat := ps.Flat()
			if sum == nil {
				sum = make([]float64, len(flat))
			}
			if len(flat) != len(sum) {
				log.Warn().
					Int("label", label).
					Stringer("descriptor", d).
					Msg("cluster member has a different keypoint count, skipping")
				continue
			}
			floats.Add(sum, flat)
			count++
		}

		var (
			mean pose.Pose
			rep  *posematrix.DistanceMatrix
		)
		if count > 0 {
			floats.Scale(1/float64(count), sum)
			mean = pose.FromFlat(sum)
			rep, _ = b.DistanceMatrix(mean)
		}
		avg.Poses = append(avg.Poses, mean)
		avg.Reps = append(avg.Reps, rep)
		avg.Members = append(avg.Members, members[label])
	}
	return avg, nil
}
