package analysis

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/choreo/internal/aggregate"
	"github.com/tensorplex-labs/choreo/internal/movement"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/similarity"
	"github.com/tensorplex-labs/choreo/internal/utils/nanstat"
)

// MovementReport is the numeric summary of a sequence's movement.
type MovementReport struct {
	Method       similarity.Method
	FigureList   pose.FigureList
	Figures      []int
	Timestamps   []float64
	WindowLen    int
	Series       [][]float64
	Smoothed     [][]float64
	Consolidated [][]float64
	Frames       aggregate.FrameMovementStats
	// Distance method only.
	KeypointTotals [][]float64
	Keypoints      movement.KeypointStats
}

// ProcessMovement extracts per-figure movement, fills and smooths each
// series, and summarizes movement per frame and per keypoint. Figures that
// never move, or series shorter than the smoothing window, get a nil
// smoothed series.
func (p *Pipeline) ProcessMovement(seq pose.Sequence, figure int) (*MovementReport, error) {
	p.logParams("movement")

	list := p.Params.FigureLists.Movement
	res, err := movement.NewExtractor(
		movement.WithMethod(p.Params.Method),
		movement.WithThreshold(p.Params.Threshold),
		movement.WithFigureList(list),
		movement.WithEngine(p.engine),
	).Extract(seq, figure)
	if err != nil {
		return nil, err
	}

	report := &MovementReport{
		Method:     p.Params.Method,
		FigureList: list,
		Figures:    res.Figures,
		Timestamps: res.Timestamps,
		WindowLen:  p.WindowLength(),
		Series:     res.AllSeries(),
	}
	report.Smoothed = make([][]float64, len(report.Series))
	for col, series := range report.Series {
		if nanstat.AllNaN(series) {
			continue
		}
		smoothed, err := signal.Smooth(signal.FillGaps(series, p.Params.Interpolation), report.WindowLen, p.Params.Window)
		if err != nil {
			log.Warn().
				Err(err).
				Int("figure", res.Figures[col]).
				Msg("movement series not smoothed")
			continue
		}
		report.Smoothed[col] = smoothed
	}

	report.Consolidated = aggregate.ConsolidateMovements(report.Series, p.Params.MaxClip)
	report.Frames = aggregate.AverageFrameMovements(report.Series, report.Timestamps, p.Params.MaxClip)

	if p.Params.Method == similarity.Distance {
		report.KeypointTotals = keypointTotals(res)
		report.Keypoints = movement.SummarizeKeypoints(res)
	}
	return report, nil
}

// keypointTotals adds up each keypoint's movement over every measured
// figure of a transition.
func keypointTotals(res *movement.Result) [][]float64 {
	out := make([][]float64, len(res.Movements))
	for f, row := range res.Movements {
		var total []float64
		for _, m := range row {
			if !m.Valid() {
				continue
			}
			if total == nil {
				total = make([]float64, len(m.Keypoints))
			}
			if len(m.Keypoints) == len(total) {
				floats.Add(total, m.Keypoints)
			}
		}
		out[f] = total
	}
	return out
}
