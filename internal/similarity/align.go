package similarity

import (
	"fmt"

	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// ScoreFunc scores two representations; pairs that cannot be compared
// score 0.
type ScoreFunc func(a, b posematrix.Representation) float64

// AlignPoint pairs index A of the first sequence with index B of the second.
type AlignPoint struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Alignment is a warping path with its accumulated score.
type Alignment struct {
	Path  []AlignPoint `json:"path"`
	Score float64      `json:"score"`
}

// Aligner aligns two representation sequences using a caller-supplied
// score. Nil entries mark frames without a usable pose.
type Aligner interface {
	Align(a, b []posematrix.Representation, score ScoreFunc) (*Alignment, error)
}

// ScoreFunc returns m's scoring callback for an Aligner.
func (e *Engine) ScoreFunc(m Method) ScoreFunc {
	return func(a, b posematrix.Representation) float64 {
		s, _ := e.Score(m, a, b)
		return s
	}
}

// CompareSequences aligns the first figure of two sequences with Mantel
// scoring over their distance matrices.
func (e *Engine) CompareSequences(a, b pose.Sequence, list pose.FigureList, aligner Aligner) (*Alignment, error) {
	if aligner == nil {
		return nil, fmt.Errorf("compare sequences: no aligner")
	}
	repsA := e.representAll(Distance, SequenceSlots(a, list, 0))
	repsB := e.representAll(Distance, SequenceSlots(b, list, 0))
	alignment, err := aligner.Align(repsA, repsB, e.ScoreFunc(Distance))
	if err != nil {
		return nil, fmt.Errorf("compare sequences: %w", err)
	}
	return alignment, nil
}
