// Package movement measures how much each tracked figure moves between
// consecutive frames.
package movement

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

// AllFigures asks Extract for every figure slot.
const AllFigures = -1

// DefaultThreshold is the mean keypoint confidence both poses must exceed.
const DefaultThreshold = 0.7

// FigureMovement is one figure's movement over one frame transition.
// Keypoints is only filled by the Distance method. Total is NaN when the
// transition was not measurable.
type FigureMovement struct {
	Keypoints []float64
	Total     float64
}

// Valid reports whether the transition was measured.
func (m FigureMovement) Valid() bool {
	return !math.IsNaN(m.Total)
}

func unmeasured() FigureMovement {
	return FigureMovement{Total: math.NaN()}
}

// Result holds movements indexed [transition][column]. Transition f runs
// from frame f to frame f+1 and Timestamps[f] is the time of frame f.
// Figures maps each column to its figure index.
type Result struct {
	Movements   [][]FigureMovement
	Timestamps  []float64
	FigureCount int
	Figures     []int
}

// Series returns the total movement of one column over time.
func (r *Result) Series(col int) []float64 {
	out := make([]float64, len(r.Movements))
	for f, row := range r.Movements {
		if col < 0 || col >= len(row) {
			out[f] = math.NaN()
			continue
		}
		out[f] = row[col].Total
	}
	return out
}

// AllSeries returns Series for every column.
func (r *Result) AllSeries() [][]float64 {
	out := make([][]float64, r.FigureCount)
	for col := range out {
		out[col] = r.Series(col)
	}
	return out
}

// Extractor computes confidence-gated movement series.
type Extractor struct {
	method    similarity.Method
	threshold float64
	list      pose.FigureList
	engine    *similarity.Engine
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMethod selects Distance or Laplacian movement.
func WithMethod(m similarity.Method) Option {
	return func(x *Extractor) {
		x.method = m
	}
}

// WithThreshold sets the confidence gate.
func WithThreshold(threshold float64) Option {
	return func(x *Extractor) {
		x.threshold = threshold
	}
}

// WithFigureList selects the pose variant read from each frame.
func WithFigureList(list pose.FigureList) Option {
	return func(x *Extractor) {
		x.list = list
	}
}

// WithEngine replaces the similarity engine.
func WithEngine(e *similarity.Engine) Option {
	return func(x *Extractor) {
		x.engine = e
	}
}

// NewExtractor creates an extractor using the Distance method, a 0.7
// confidence gate and the flipped figure list.
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{
		method:    similarity.Distance,
		threshold: DefaultThreshold,
		list:      pose.Flipped,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.engine == nil {
		x.engine = similarity.NewEngine()
	}
	return x
}

// Extract measures movement for every figure, or only for figure when it is
// not AllFigures. The figure count is taken from the data before a pinned
// figure narrows it to a single column.
func (x *Extractor) Extract(seq pose.Sequence, figure int) (*Result, error) {
	if x.method != similarity.Distance && x.method != similarity.Laplacian {
		return nil, errs.Invalid("movement: unsupported method %s", x.method)
	}
	if figure < AllFigures {
		return nil, errs.Invalid("movement: invalid figure index %d", figure)
	}

	grid := pose.NewGrid(seq, x.list)
	figures := make([]int, grid.Figures())
	for p := range figures {
		figures[p] = p
	}
	if figure != AllFigures {
		figures = []int{figure}
	}

	res := &Result{FigureCount: len(figures), Figures: figures}
	if grid.Frames() < 2 {
		return res, nil
	}

	transitions := grid.Frames() - 1
	res.Movements = make([][]FigureMovement, transitions)
	res.Timestamps = make([]float64, transitions)
	for f := range transitions {
		res.Timestamps[f] = grid.Times[f]
		row := make([]FigureMovement, len(figures))
		for col, p := range figures {
			row[col] = x.measure(grid.At(f, p), grid.At(f+1, p))
		}
		res.Movements[f] = row
	}

	log.Debug().
		Str("method", x.method.String()).
		Str("figure_list", x.list.String()).
		Int("figures", len(figures)).
		Int("transitions", transitions).
		Msg("extracted movement series")
	return res, nil
}

func (x *Extractor) eligible(a, b pose.Slot) bool {
	return a.Present && b.Present &&
		a.Pose.MeanConfidence() > x.threshold &&
		b.Pose.MeanConfidence() > x.threshold
}

func (x *Extractor) measure(a, b pose.Slot) FigureMovement {
	if !x.eligible(a, b) {
		return unmeasured()
	}

	switch x.method {
	case similarity.Distance:
		builder := x.engine.Builder()
		da, okA := builder.DistanceMatrix(a.Pose)
		db, okB := builder.DistanceMatrix(b.Pose)
		if !okA || !okB || da.Size() != db.Size() {
			return unmeasured()
		}
		n := da.Size()
		var diff mat.Dense
		diff.Sub(da.D, db.D)
		perKeypoint := make([]float64, n)
		var total float64
		for i := range n {
			for j := range n {
				perKeypoint[i] += math.Abs(diff.At(i, j))
			}
			total += perKeypoint[i]
		}
		return FigureMovement{Keypoints: perKeypoint, Total: total}
	case similarity.Laplacian:
		s, ok := x.engine.ComparePoses(similarity.Laplacian, a.Pose, b.Pose)
		if !ok {
			return unmeasured()
		}
		return FigureMovement{Total: 1 - s}
	}
	return unmeasured()
}
