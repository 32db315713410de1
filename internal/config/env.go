// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

type AppConfig struct {
	AnalysisEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	DetectorEnvConfig
	Environment string `env:"ENVIRONMENT, default=dev"`
}

// LoadConfig reads the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith reads configuration through l and validates the analysis
// section.
func LoadConfigWith(ctx context.Context, l envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.AnalysisEnvConfig.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AnalysisEnvConfig holds the analysis parameters. Enum-valued fields are
// kept as names and parsed by Validate.
type AnalysisEnvConfig struct {
	SimilarityMethod    string  `env:"SIMILARITY_METHOD, default=distance"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD, default=0.7"`
	MinSamples          int     `env:"MIN_SAMPLES, default=50"`
	MinWindowLength     int     `env:"MIN_WINDOW_LENGTH, default=5"`
	SmoothingWindow     string  `env:"SMOOTHING_WINDOW, default=flat"`
	Interpolation       string  `env:"INTERPOLATION, default=linear"`
	MaxMovementClip     float64 `env:"MAX_MOVEMENT_CLIP, default=3"`
	SyncMinClip         float64 `env:"SYNC_MIN_CLIP, default=0.2"`
	SyncThreshold       float64 `env:"SYNC_THRESHOLD, default=0.9"`
	MantelPermutations  int     `env:"MANTEL_PERMUTATIONS, default=0"`
	MantelMethod        string  `env:"MANTEL_METHOD, default=pearson"`
	Workers             int     `env:"ANALYSIS_WORKERS, default=1"`

	MovementFigureList   string `env:"MOVEMENT_FIGURE_LIST, default=flipped_figures"`
	ClusterFigureList    string `env:"CLUSTER_FIGURE_LIST, default=aligned_figures"`
	AverageFigureList    string `env:"AVERAGE_FIGURE_LIST, default=zeroified_figures"`
	SimilarityFigureList string `env:"SIMILARITY_FIGURE_LIST, default=figures"`
	MultiFigureList      string `env:"MULTI_FIGURE_LIST, default=aligned_figures"`

	// Parsed is filled by Validate.
	Parsed ParsedAnalysis
}

// ParsedAnalysis is the typed form of the enum-valued settings.
type ParsedAnalysis struct {
	Method        similarity.Method
	Correlation   similarity.Correlation
	Window        signal.Window
	Interpolation signal.Interpolation
	FigureLists   StageFigureLists
}

// StageFigureLists picks the figure list each analysis stage reads.
type StageFigureLists struct {
	Movement   pose.FigureList
	Cluster    pose.FigureList
	Average    pose.FigureList
	Similarity pose.FigureList
	Multi      pose.FigureList
}

// DefaultStageFigureLists mirrors the environment defaults.
func DefaultStageFigureLists() StageFigureLists {
	return StageFigureLists{
		Movement:   pose.Flipped,
		Cluster:    pose.Aligned,
		Average:    pose.Zeroified,
		Similarity: pose.Raw,
		Multi:      pose.Aligned,
	}
}

// Validate parses the enum names and checks numeric ranges.
func (c *AnalysisEnvConfig) Validate() error {
	var (
		p   ParsedAnalysis
		err error
	)
	if p.Method, err = similarity.ParseMethod(c.SimilarityMethod); err != nil {
		return err
	}
	if p.Correlation, err = similarity.ParseCorrelation(c.MantelMethod); err != nil {
		return err
	}
	if p.Window, err = signal.ParseWindow(c.SmoothingWindow); err != nil {
		return err
	}
	if p.Interpolation, err = signal.ParseInterpolation(c.Interpolation); err != nil {
		return err
	}

	lists := []struct {
		name string
		dst  *pose.FigureList
	}{
		{c.MovementFigureList, &p.FigureLists.Movement},
		{c.ClusterFigureList, &p.FigureLists.Cluster},
		{c.AverageFigureList, &p.FigureLists.Average},
		{c.SimilarityFigureList, &p.FigureLists.Similarity},
		{c.MultiFigureList, &p.FigureLists.Multi},
	}
	for _, l := range lists {
		if *l.dst, err = pose.ParseFigureList(l.name); err != nil {
			return err
		}
	}

	switch {
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return errs.Invalid("config: CONFIDENCE_THRESHOLD %v outside [0, 1]", c.ConfidenceThreshold)
	case c.MinSamples < 2:
		return errs.Invalid("config: MIN_SAMPLES must be at least 2, got %d", c.MinSamples)
	case c.MinWindowLength < 1:
		return errs.Invalid("config: MIN_WINDOW_LENGTH must be positive, got %d", c.MinWindowLength)
	case c.MantelPermutations < 0:
		return errs.Invalid("config: MANTEL_PERMUTATIONS must not be negative, got %d", c.MantelPermutations)
	case c.Workers < 1:
		return errs.Invalid("config: ANALYSIS_WORKERS must be positive, got %d", c.Workers)
	}

	c.Parsed = p
	return nil
}

// ServerEnvConfig configures the analysis server.
type ServerEnvConfig struct {
	Host          string `env:"SERVER_HOST, default=0.0.0.0"`
	Port          int    `env:"SERVER_PORT, default=8888"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT, default=16777216"`
}

// ClientEnvConfig configures outgoing HTTP clients.
type ClientEnvConfig struct {
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	RetryMax      int           `env:"CLIENT_RETRY_MAX, default=3"`
	RetryWait     time.Duration `env:"CLIENT_RETRY_WAIT, default=500ms"`
}

// DetectorEnvConfig points at a pose detection service.
type DetectorEnvConfig struct {
	DetectorURL string `env:"DETECTOR_URL"`
}
