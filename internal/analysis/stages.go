package analysis

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/choreo/internal/aggregate"
	"github.com/tensorplex-labs/choreo/internal/clustering"
	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/movement"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

func (p *Pipeline) matrixOptions() []similarity.MatrixOption {
	return []similarity.MatrixOption{
		similarity.WithWorkers(p.Params.Workers),
		similarity.WithProgress(p.progress),
	}
}

// SimilarityMatrix compares figure 0 of every frame with every other frame.
func (p *Pipeline) SimilarityMatrix(seq pose.Sequence) *mat.Dense {
	p.logParams("similarity")
	slots := similarity.SequenceSlots(seq, p.Params.FigureLists.Similarity, 0)
	return p.engine.SelfMatrix(slots, p.Params.Method, p.matrixOptions()...)
}

// CompareSequences compares figure 0 of every frame of a with figure 0 of
// every frame of b.
func (p *Pipeline) CompareSequences(a, b pose.Sequence) *mat.Dense {
	p.logParams("compare")
	list := p.Params.FigureLists.Similarity
	return p.engine.CrossMatrix(
		similarity.SequenceSlots(a, list, 0),
		similarity.SequenceSlots(b, list, 0),
		p.Params.Method,
		p.matrixOptions()...,
	)
}

// Align hands both sequences to the configured aligner.
func (p *Pipeline) Align(a, b pose.Sequence) (*similarity.Alignment, error) {
	return p.engine.CompareSequences(a, b, p.Params.FigureLists.Similarity, p.aligner)
}

// MantelTest correlates the distance matrices of two poses, with a
// permutation p-value when the pipeline's Mantel options ask for one.
func (p *Pipeline) MantelTest(a, b pose.Pose) (similarity.MantelResult, error) {
	builder := p.engine.Builder()
	x, okX := builder.DistanceMatrix(a)
	y, okY := builder.DistanceMatrix(b)
	if !okX || !okY {
		return similarity.MantelResult{}, errs.Invalid("mantel: both poses need at least two keypoints")
	}
	return similarity.Mantel(x, y, p.Params.Mantel)
}

// ClusterReport is the outcome of clustering and outlier reassignment.
type ClusterReport struct {
	Labels      []int
	Descriptors []pose.Descriptor
	Clusters    int
	Noise       int
	Assignment  *clustering.Assignment
}

// Clusters groups the poses of the cluster figure list and attaches the
// noise poses to the nearest cluster average built from the average list.
func (p *Pipeline) Clusters(seq pose.Sequence) (*ClusterReport, error) {
	p.logParams("clusters")
	lists := p.Params.FigureLists

	labels, descriptors, err := clustering.Cluster(seq, lists.Cluster, p.Params.MinSamples, p.engine.Builder())
	if err != nil {
		return nil, err
	}
	assignment, err := clustering.AssignOutliers(labels, descriptors, seq, lists.Average,
		clustering.WithEngine(p.engine),
		clustering.WithWorkers(p.Params.Workers),
	)
	if err != nil {
		return nil, err
	}

	report := &ClusterReport{
		Labels:      labels,
		Descriptors: descriptors,
		Clusters:    assignment.Averages.Len(),
		Assignment:  assignment,
	}
	for _, l := range labels {
		if l == clustering.Noise {
			report.Noise++
		}
	}
	return report, nil
}

// SynchronyReport describes how alike the figures of each frame are.
type SynchronyReport struct {
	Means   []float64
	Stds    []float64
	Profile *aggregate.SynchronyProfile
}

// Multi scores every pair of figures in every frame and builds the
// synchrony profile of the group.
func (p *Pipeline) Multi(seq pose.Sequence) (*SynchronyReport, error) {
	p.logParams("multi")
	means, stds := aggregate.FrameSimilarityStats(seq, p.Params.FigureLists.Multi, p.Params.Method, p.engine)

	profile, err := aggregate.Synchrony(means, stds, seq.Times(), aggregate.SynchronyOptions{
		WindowLength:  p.WindowLength(),
		Window:        p.Params.Window,
		Interpolation: p.Params.Interpolation,
		MinClip:       p.Params.SyncMinClip,
		Threshold:     p.Params.SyncThreshold,
	})
	if err != nil {
		return nil, err
	}
	return &SynchronyReport{Means: means, Stds: stds, Profile: profile}, nil
}

// Report gathers every stage. A stage that fails leaves its field nil and
// records its error; the other stages still run.
type Report struct {
	ID         string
	Frames     int
	Figures    int
	Movement   *MovementReport
	Similarity *mat.Dense
	Clusters   *ClusterReport
	Synchrony  *SynchronyReport
	Errors     map[string]string
}

// Run executes every stage over seq.
func (p *Pipeline) Run(seq pose.Sequence) (*Report, error) {
	if len(seq) == 0 {
		return nil, errs.Invalid("analysis: empty sequence")
	}

	report := &Report{
		ID:      uuid.NewString(),
		Frames:  len(seq),
		Figures: seq.FigureCount(pose.Raw),
		Errors:  map[string]string{},
	}
	fail := func(stage string, err error) {
		log.Warn().Err(err).Str("run", report.ID).Str("stage", stage).Msg("analysis stage failed")
		report.Errors[stage] = err.Error()
	}

	var err error
	if report.Movement, err = p.ProcessMovement(seq, movement.AllFigures); err != nil {
		fail("movement", err)
	}
	report.Similarity = p.SimilarityMatrix(seq)
	if report.Clusters, err = p.Clusters(seq); err != nil {
		fail("clusters", err)
	}
	if report.Figures > 1 {
		if report.Synchrony, err = p.Multi(seq); err != nil {
			fail("synchrony", err)
		}
	}

	log.Info().
		Str("run", report.ID).
		Int("frames", report.Frames).
		Int("figures", report.Figures).
		Int("failed_stages", len(report.Errors)).
		Msg("analysis complete")
	return report, nil
}
