package api

import (
	"github.com/tensorplex-labs/choreo/internal/analysis"
	"github.com/tensorplex-labs/choreo/internal/pose"
)

// NewMovementResponse converts a movement report for the wire.
func NewMovementResponse(runID string, r *analysis.MovementReport) *MovementResponse {
	if r == nil {
		return nil
	}
	return &MovementResponse{
		RunID:         runID,
		Method:        r.Method.String(),
		FigureList:    r.FigureList.String(),
		Figures:       r.Figures,
		Timestamps:    Series(r.Timestamps),
		WindowLength:  r.WindowLen,
		Series:        seriesList(r.Series),
		Smoothed:      seriesList(r.Smoothed),
		Consolidated:  seriesList(r.Consolidated),
		FrameMeans:    Series(r.Frames.Means),
		FrameUpper:    Series(r.Frames.Upper),
		FrameLower:    Series(r.Frames.Lower),
		KeypointTotal: seriesList(r.KeypointTotals),
		KeypointMeans: Series(r.Keypoints.Means),
		KeypointStds:  Series(r.Keypoints.Stds),
	}
}

// NewClusterResponse flattens a cluster report. Closest matches are listed
// in descriptor order.
func NewClusterResponse(runID string, r *analysis.ClusterReport) *ClusterResponse {
	if r == nil {
		return nil
	}
	resp := &ClusterResponse{
		RunID:       runID,
		Labels:      r.Labels,
		Descriptors: r.Descriptors,
		Clusters:    r.Clusters,
		Noise:       r.Noise,
	}
	if a := r.Assignment; a != nil {
		resp.Heatmap = a.Heatmap
		if a.Averages != nil {
			resp.ClusterLabels = a.Averages.Labels
			resp.AveragePoses = a.Averages.Poses
		}
		if a.ClosestMatches != nil {
			resp.ClosestMatches = make([]ClosestMatch, 0, a.ClosestMatches.Len())
			a.ClosestMatches.Range(func(d pose.Descriptor, row int) bool {
				resp.ClosestMatches = append(resp.ClosestMatches, ClosestMatch{Descriptor: d, Row: row})
				return true
			})
		}
	}
	return resp
}

// NewSynchronyResponse converts a synchrony report for the wire.
func NewSynchronyResponse(r *analysis.SynchronyReport) *SynchronyResponse {
	if r == nil || r.Profile == nil {
		return nil
	}
	p := r.Profile
	return &SynchronyResponse{
		Means:                 Series(r.Means),
		Stds:                  Series(r.Stds),
		Upper:                 Series(p.Upper),
		Lower:                 Series(p.Lower),
		SmoothedMeans:         Series(p.SmoothedMeans),
		SmoothedUpper:         Series(p.SmoothedUpper),
		SmoothedLower:         Series(p.SmoothedLower),
		Mean:                  Float(p.Mean),
		Std:                   Float(p.Std),
		SmoothedMean:          Float(p.SmoothedMean),
		SmoothedStd:           Float(p.SmoothedStd),
		OverThreshold:         Float(p.OverThreshold),
		SmoothedOverThreshold: Float(p.SmoothedOverThreshold),
	}
}

// NewAnalyzeResponse converts a full report for the wire.
func NewAnalyzeResponse(r *analysis.Report) *AnalyzeResponse {
	resp := &AnalyzeResponse{
		RunID:      r.ID,
		Frames:     r.Frames,
		Figures:    r.Figures,
		Movement:   NewMovementResponse(r.ID, r.Movement),
		Similarity: MatrixFromDense(r.Similarity),
		Clusters:   NewClusterResponse(r.ID, r.Clusters),
		Synchrony:  NewSynchronyResponse(r.Synchrony),
	}
	if len(r.Errors) > 0 {
		resp.Errors = r.Errors
	}
	return resp
}
