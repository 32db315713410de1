package similarity

import (
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// ProgressReporter receives one Add(1) per finished matrix row.
// *progressbar.ProgressBar satisfies it.
type ProgressReporter interface {
	Add(num int) error
	Finish() error
}

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }
func (nopProgress) Finish() error { return nil }

type matrixConfig struct {
	progress ProgressReporter
	workers  int
}

// MatrixOption configures SelfMatrix and CrossMatrix.
type MatrixOption func(*matrixConfig)

// WithProgress reports each completed row to p.
func WithProgress(p ProgressReporter) MatrixOption {
	return func(c *matrixConfig) {
		if p != nil {
			c.progress = p
		}
	}
}

// WithWorkers computes rows on n goroutines. Each row writes only its own
// cells, so the result does not depend on n.
func WithWorkers(n int) MatrixOption {
	return func(c *matrixConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

func newMatrixConfig(opts []MatrixOption) matrixConfig {
	c := matrixConfig{progress: nopProgress{}, workers: 1}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// SequenceSlots returns figure p's slot in every frame of seq.
func SequenceSlots(seq pose.Sequence, list pose.FigureList, p int) []pose.Slot {
	return pose.NewGrid(seq, list).Column(p)
}

func (e *Engine) representAll(m Method, slots []pose.Slot) []posematrix.Representation {
	reps := make([]posematrix.Representation, len(slots))
	for i, s := range slots {
		if !s.Present {
			continue
		}
		if r, ok := e.Represent(m, s.Pose); ok {
			reps[i] = r
		}
	}
	return reps
}

// runRows calls row(i) for i in [0, n) on the configured number of workers.
func runRows(n int, cfg matrixConfig, row func(i int)) {
	workers := min(cfg.workers, max(n, 1))
	rows := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range rows {
				log.Trace().Int("row", i).Int("rows", n).Msg("comparing row")
				row(i)
				_ = cfg.progress.Add(1)
			}
		}()
	}
	for i := range n {
		rows <- i
	}
	close(rows)
	wg.Wait()
	_ = cfg.progress.Finish()
}

// SelfMatrix compares every slot with every other slot of one sequence.
// The diagonal is exactly 1, the upper triangle is computed and the lower
// triangle is copied from it, so the result is exactly symmetric. Pairs that
// cannot be compared score 0.
func (e *Engine) SelfMatrix(slots []pose.Slot, m Method, opts ...MatrixOption) *mat.Dense {
	n := len(slots)
	if n == 0 {
		return &mat.Dense{}
	}
	cfg := newMatrixConfig(opts)
	reps := e.representAll(m, slots)
	out := mat.NewDense(n, n, nil)

	runRows(n, cfg, func(i int) {
		out.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			if s, ok := e.Score(m, reps[i], reps[j]); ok {
				out.Set(i, j, s)
			}
		}
	})

	for i := range n {
		for j := i + 1; j < n; j++ {
			out.Set(j, i, out.At(i, j))
		}
	}
	return out
}

// CrossMatrix compares every slot of a with every slot of b. Row i holds
// a[i] against all of b.
func (e *Engine) CrossMatrix(a, b []pose.Slot, m Method, opts ...MatrixOption) *mat.Dense {
	if len(a) == 0 || len(b) == 0 {
		return &mat.Dense{}
	}
	cfg := newMatrixConfig(opts)
	repsA := e.representAll(m, a)
	repsB := e.representAll(m, b)
	out := mat.NewDense(len(a), len(b), nil)

	runRows(len(a), cfg, func(i int) {
		for j := range repsB {
			if s, ok := e.Score(m, repsA[i], repsB[j]); ok {
				out.Set(i, j, s)
			}
		}
	})
	return out
}
