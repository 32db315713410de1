// Package analysis runs the pose analysis stages over a whole sequence.
package analysis

import (
	"github.com/tensorplex-labs/choreo/internal/aggregate"
	"github.com/tensorplex-labs/choreo/internal/config"
	"github.com/tensorplex-labs/choreo/internal/movement"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/similarity"
	"github.com/tensorplex-labs/choreo/internal/utils/logger"
	"github.com/tensorplex-labs/choreo/internal/videometa"
)

// Params are the tunables shared by every stage.
type Params struct {
	Method          similarity.Method
	Threshold       float64
	MinWindowLength int
	Window          signal.Window
	Interpolation   signal.Interpolation
	MinSamples      int
	MaxClip         float64
	SyncMinClip     float64
	SyncThreshold   float64
	FigureLists     config.StageFigureLists
	Mantel          similarity.MantelOptions
	Workers         int
	Video           videometa.Stats
}

// DefaultParams returns the defaults documented for the environment
// configuration.
func DefaultParams() Params {
	return Params{
		Method:          similarity.Distance,
		Threshold:       movement.DefaultThreshold,
		MinWindowLength: 5,
		Window:          signal.Flat,
		Interpolation:   signal.Linear,
		MinSamples:      50,
		MaxClip:         aggregate.DefaultMaxClip,
		SyncMinClip:     aggregate.DefaultSyncMinClip,
		SyncThreshold:   aggregate.DefaultSyncThreshold,
		FigureLists:     config.DefaultStageFigureLists(),
		Mantel:          similarity.DefaultMantelOptions(),
		Workers:         1,
	}
}

type Pipeline struct {
	Params   Params
	progress similarity.ProgressReporter
	aligner  similarity.Aligner
	engine   *similarity.Engine
}

type PipelineOption func(*Pipeline)

func WithMethod(m similarity.Method) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Method = m
	}
}

func WithThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Threshold = threshold
	}
}

func WithMinWindowLength(n int) PipelineOption {
	return func(p *Pipeline) {
		p.Params.MinWindowLength = n
	}
}

func WithWindow(w signal.Window) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Window = w
	}
}

func WithInterpolation(k signal.Interpolation) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Interpolation = k
	}
}

func WithMinSamples(n int) PipelineOption {
	return func(p *Pipeline) {
		p.Params.MinSamples = n
	}
}

func WithMaxClip(clip float64) PipelineOption {
	return func(p *Pipeline) {
		p.Params.MaxClip = clip
	}
}

func WithFigureLists(lists config.StageFigureLists) PipelineOption {
	return func(p *Pipeline) {
		p.Params.FigureLists = lists
	}
}

func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.Params.Workers = n
		}
	}
}

func WithMantel(opts similarity.MantelOptions) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Mantel = opts
	}
}

func WithVideoStats(s videometa.Stats) PipelineOption {
	return func(p *Pipeline) {
		p.Params.Video = s
	}
}

// WithProgress reports similarity matrix rows to r.
func WithProgress(r similarity.ProgressReporter) PipelineOption {
	return func(p *Pipeline) {
		p.progress = r
	}
}

// WithAligner sets the collaborator used by Align.
func WithAligner(a similarity.Aligner) PipelineOption {
	return func(p *Pipeline) {
		p.aligner = a
	}
}

func WithParams(params Params) PipelineOption {
	return func(p *Pipeline) {
		p.Params = params
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{Params: DefaultParams()}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = similarity.NewEngine(
		similarity.WithBuilder(posematrix.NewBuilder(posematrix.DefaultConfig())),
		similarity.WithCorrelation(p.Params.Mantel.Correlation),
	)
	return p
}

// FromConfig converts a validated environment configuration into options.
func FromConfig(cfg *config.AnalysisEnvConfig) []PipelineOption {
	mantel := similarity.DefaultMantelOptions()
	mantel.Correlation = cfg.Parsed.Correlation
	mantel.Permutations = cfg.MantelPermutations

	return []PipelineOption{
		WithParams(Params{
			Method:          cfg.Parsed.Method,
			Threshold:       cfg.ConfidenceThreshold,
			MinWindowLength: cfg.MinWindowLength,
			Window:          cfg.Parsed.Window,
			Interpolation:   cfg.Parsed.Interpolation,
			MinSamples:      cfg.MinSamples,
			MaxClip:         cfg.MaxMovementClip,
			SyncMinClip:     cfg.SyncMinClip,
			SyncThreshold:   cfg.SyncThreshold,
			FigureLists:     cfg.Parsed.FigureLists,
			Mantel:          mantel,
			Workers:         cfg.Workers,
		}),
	}
}

// Engine returns the similarity engine shared by the stages.
func (p *Pipeline) Engine() *similarity.Engine {
	return p.engine
}

// WindowLength is the smoothing window derived from the video frame rate.
func (p *Pipeline) WindowLength() int {
	return signal.WindowLength(p.Params.Video.FPS, p.Params.MinWindowLength)
}

func (p *Pipeline) logParams(stage string) {
	logger.Sugar().Infow("Running analysis stage", "stage", stage, "params", p.Params)
}
