// Package clustering groups poses into recurring shapes with OPTICS and
// attaches leftover poses to the nearest cluster average.
package clustering

import (
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// Features enumerates poses frame by frame, then figure by figure, and
// returns each available pose's condensed distance matrix with its
// descriptor. Poses without a distance matrix are skipped.
func Features(seq pose.Sequence, list pose.FigureList, b *posematrix.Builder) ([][]float64, []pose.Descriptor) {
	var (
		features    [][]float64
		descriptors []pose.Descriptor
	)
	for f, frame := range seq {
		for p := range frame.Poses(list) {
			ps, ok := frame.Pose(list, p)
			if !ok {
				continue
			}
			dm, ok := b.DistanceMatrix(ps)
			if !ok {
				continue
			}
			features = append(features, dm.Condensed())
			descriptors = append(descriptors, pose.Descriptor{Frame: f, Figure: p})
		}
	}
	return features, descriptors
}

// Cluster extracts features from seq and labels them with OPTICS.
// Labels and descriptors are parallel.
func Cluster(seq pose.Sequence, list pose.FigureList, minSamples int, b *posematrix.Builder) ([]int, []pose.Descriptor, error) {
	features, descriptors := Features(seq, list, b)
	res, err := NewOPTICS(minSamples).Fit(features)
	if err != nil {
		return nil, nil, err
	}
	return res.Labels, descriptors, nil
}
