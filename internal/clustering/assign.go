package clustering

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

// Heatmap cell values.
const (
	HeatNone    = 0
	HeatMatched = 1
	HeatMember  = 2
)

// Assignment is the outcome of AssignOutliers.
type Assignment struct {
	// Heatmap is indexed [cluster row][frame].
	Heatmap [][]int
	// ClosestMatches maps each member and each reassigned noise point to its
	// cluster row. Noise points that beat no cluster are absent.
	ClosestMatches *pose.DescriptorMap[int]
	Averages       *Averages
}

type assignConfig struct {
	engine  *similarity.Engine
	workers int
}

// AssignOption configures AssignOutliers.
type AssignOption func(*assignConfig)

// WithEngine sets the engine used to score noise points against averages.
func WithEngine(e *similarity.Engine) AssignOption {
	return func(c *assignConfig) {
		c.engine = e
	}
}

// WithWorkers scores noise points on n goroutines. Results are merged in
// descriptor order, so n never changes the outcome.
func WithWorkers(n int) AssignOption {
	return func(c *assignConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NearestCluster returns the averages row that scores highest against rep
// under the Distance method. Only scores strictly above 0 count, and the
// first row wins ties. ok is false when no row qualifies.
func NearestCluster(e *similarity.Engine, rep posematrix.Representation, avg *Averages) (row int, score float64, ok bool) {
	row = -1
	for i, candidate := range avg.Reps {
		if candidate == nil {
			continue
		}
		s, comparable := e.Score(similarity.Distance, rep, candidate)
		if comparable && s > score {
			row, score = i, s
		}
	}
	return row, score, row >= 0
}

// AssignOutliers builds the cluster presence heatmap and the closest-match
// map. Members mark their own cluster with HeatMember; each noise point is
// scored against every cluster average and marks the winner with
// HeatMatched. A cell keeps the highest mark it receives.
func AssignOutliers(labels []int, descriptors []pose.Descriptor, seq pose.Sequence, list pose.FigureList, opts ...AssignOption) (*Assignment, error) {
	cfg := assignConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = similarity.NewEngine()
	}

	avg, err := ComputeAverages(labels, descriptors, seq, list, cfg.engine.Builder())
	if err != nil {
		return nil, err
	}

	heatmap := make([][]int, avg.Len())
	for i := range heatmap {
		heatmap[i] = make([]int, len(seq))
	}
	mark := func(row, frame, value int) {
		heatmap[row][frame] = max(heatmap[row][frame], value)
	}

	var noise []int
	for i, label := range labels {
		if descriptors[i].Frame < 0 || descriptors[i].Frame >= len(seq) {
			return nil, errs.Invalid("assign: descriptor %s outside sequence of %d frames", descriptors[i], len(seq))
		}
		if label == Noise {
			noise = append(noise, i)
		}
	}

	best := make([]int, len(labels))
	var wg sync.WaitGroup
	jobs := make(chan int)
	workers := min(cfg.workers, max(len(noise), 1))
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				best[i] = -1
				d := descriptors[i]
				ps, ok := seq[d.Frame].Pose(list, d.Figure)
				if !ok {
					continue
				}
				rep, ok := cfg.engine.Represent(similarity.Distance, ps)
				if !ok {
					continue
				}
				if row, _, ok := NearestCluster(cfg.engine, rep, avg); ok {
					best[i] = row
				}
			}
		}()
	}
	for _, i := range noise {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	closest := pose.NewDescriptorMap[int](len(labels))
	unmatched := 0
	for i, label := range labels {
		d := descriptors[i]
		if label != Noise {
			row := avg.Index(label)
			mark(row, d.Frame, HeatMember)
			closest.Set(d, row)
			continue
		}
		if best[i] < 0 {
			unmatched++
			continue
		}
		mark(best[i], d.Frame, HeatMatched)
		closest.Set(d, best[i])
	}

	log.Debug().
		Int("clusters", avg.Len()).
		Int("noise", len(noise)).
		Int("unmatched", unmatched).
		Msg("outlier reassignment complete")

	return &Assignment{
		Heatmap:        heatmap,
		ClosestMatches: closest,
		Averages:       avg,
	}, nil
}
