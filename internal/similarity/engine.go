package similarity

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// Engine scores poses under any Method.
type Engine struct {
	builder *posematrix.Builder
	mantel  MantelOptions
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBuilder replaces the default representation builder.
func WithBuilder(b *posematrix.Builder) EngineOption {
	return func(e *Engine) {
		e.builder = b
	}
}

// WithCorrelation selects the Mantel correlation used by the Distance method.
func WithCorrelation(c Correlation) EngineOption {
	return func(e *Engine) {
		e.mantel.Correlation = c
	}
}

// NewEngine creates an engine with a default builder and Pearson Mantel
// scoring.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		builder: posematrix.NewBuilder(posematrix.DefaultConfig()),
		mantel:  DefaultMantelOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	// scoring never needs the permutation p-value
	e.mantel.Permutations = 0
	return e
}

// Builder returns the engine's representation builder.
func (e *Engine) Builder() *posematrix.Builder {
	return e.builder
}

// Represent builds the representation Method m compares.
func (e *Engine) Represent(m Method, p pose.Pose) (posematrix.Representation, bool) {
	switch m {
	case Distance:
		if dm, ok := e.builder.DistanceMatrix(p); ok {
			return dm, true
		}
	case Cosine:
		if v, ok := e.builder.NormalizedVector(p); ok {
			return v, true
		}
	case Laplacian:
		if g, ok := e.builder.Laplacian(p); ok {
			return g, true
		}
	}
	return nil, false
}

// Score compares two representations. The second value is false when the
// pair cannot be compared: missing input, mismatched shapes, differing
// graph topology, a constant distance matrix, or a representation of the
// wrong kind for m.
func (e *Engine) Score(m Method, a, b posematrix.Representation) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	switch m {
	case Distance:
		x, okX := a.(*posematrix.DistanceMatrix)
		y, okY := b.(*posematrix.DistanceMatrix)
		if !okX || !okY {
			return 0, false
		}
		res, err := Mantel(x, y, e.mantel)
		if err != nil {
			log.Trace().Err(err).Msg("distance matrices not comparable")
			return 0, false
		}
		if math.IsNaN(res.Statistic) {
			return 0, false
		}
		return res.Statistic, true
	case Cosine:
		x, okX := a.(posematrix.NormalizedVector)
		y, okY := b.(posematrix.NormalizedVector)
		if !okX || !okY {
			return 0, false
		}
		return CosineSimilarity(x, y)
	case Laplacian:
		x, okX := a.(*posematrix.LaplacianGraph)
		y, okY := b.(*posematrix.LaplacianGraph)
		if !okX || !okY {
			return 0, false
		}
		return LaplacianSimilarity(x, y)
	}
	return 0, false
}

// ComparePoses builds both representations and scores them.
func (e *Engine) ComparePoses(m Method, a, b pose.Pose) (float64, bool) {
	ra, ok := e.Represent(m, a)
	if !ok {
		return 0, false
	}
	rb, ok := e.Represent(m, b)
	if !ok {
		return 0, false
	}
	return e.Score(m, ra, rb)
}
