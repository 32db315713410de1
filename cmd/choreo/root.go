package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/choreo/internal/analysis"
	"github.com/tensorplex-labs/choreo/internal/config"
	"github.com/tensorplex-labs/choreo/internal/posesource"
	"github.com/tensorplex-labs/choreo/internal/utils/logger"
	"github.com/tensorplex-labs/choreo/internal/videometa"
)

// Version is the application version.
const Version = "0.1.0"

// Options holds the flags shared by the analysis commands.
type Options struct {
	Debug bool
	Trace bool
	Info  bool

	Input  string
	URL    string
	Video  string
	FPS    float64
	Output string
	Method string

	cfg *config.AppConfig
}

func newRootCmd() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           "choreo",
		Short:         "Pose similarity, movement and synchrony analysis for dance video",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(logger.Options{Debug: opts.Debug, Trace: opts.Trace, Info: opts.Info})

			cfg, err := config.LoadConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.Debug, "debug", false, "sets log level to debug")
	flags.BoolVar(&opts.Trace, "trace", false, "sets log level to trace")
	flags.BoolVar(&opts.Info, "info", false, "sets log level to info (default)")

	root.AddCommand(newAnalyzeCmd(opts), newSimilarityCmd(opts), newServeCmd(opts))
	return root
}

// addInputFlags registers the flags for commands that read poses.
func addInputFlags(cmd *cobra.Command, opts *Options) {
	f := cmd.Flags()
	f.StringVar(&opts.URL, "url", "", "fetch poses from a detector URL instead of a file (default: $DETECTOR_URL)")
	f.StringVar(&opts.Video, "video", "", "video file to read the frame rate from with ffprobe")
	f.Float64Var(&opts.FPS, "fps", 0, "frame rate, overrides --video")
	f.StringVarP(&opts.Output, "output", "o", "", "write JSON here instead of stdout; .zst paths are compressed")
	f.StringVar(&opts.Method, "method", "", "similarity method: distance, cosine or laplacian (default: $SIMILARITY_METHOD)")
}

// source picks the pose source from the positional argument, --url or
// DETECTOR_URL, in that order.
func (o *Options) source(args []string) (docSource, error) {
	switch {
	case len(args) > 0:
		o.Input = args[0]
		return posesource.NewFileSource(args[0]), nil
	case o.URL != "" || o.cfg.DetectorURL != "":
		url := o.URL
		if url == "" {
			url = o.cfg.DetectorURL
		}
		httpCfg := posesource.DefaultHTTPConfig()
		httpCfg.Timeout = o.cfg.ClientTimeout
		httpCfg.RetryMax = o.cfg.RetryMax
		httpCfg.RetryWaitMin = o.cfg.RetryWait
		return posesource.NewHTTPSource(url, httpCfg), nil
	}
	return nil, fmt.Errorf("no pose input: pass a file, --url or set DETECTOR_URL")
}

type docSource interface {
	Document(ctx context.Context) (*posesource.Document, error)
}

// load reads the pose document and builds a pipeline configured from the
// environment, the flags and the video's frame rate.
func (o *Options) load(ctx context.Context, args []string, extra ...analysis.PipelineOption) (*posesource.Document, *analysis.Pipeline, error) {
	src, err := o.source(args)
	if err != nil {
		return nil, nil, err
	}
	doc, err := src.Document(ctx)
	if err != nil {
		return nil, nil, err
	}

	analysisCfg := o.cfg.AnalysisEnvConfig
	if o.Method != "" {
		analysisCfg.SimilarityMethod = o.Method
		if err := analysisCfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	stats := videometa.Stats{FPS: o.FPS}
	if !stats.Known() {
		video := o.Video
		if video == "" {
			video = doc.Video
		}
		stats = videometa.StatsOrZero(ctx, videometa.NewFFProbe(), video)
	}
	log.Info().
		Int("frames", len(doc.Frames)).
		Float64("fps", stats.FPS).
		Msg("poses loaded")

	opts := append(analysis.FromConfig(&analysisCfg), analysis.WithVideoStats(stats))
	return doc, analysis.NewPipeline(append(opts, extra...)...), nil
}

// writeOutput writes data to --output or stdout.
func (o *Options) writeOutput(data []byte) error {
	if o.Output == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if strings.HasSuffix(o.Output, ".zst") {
		compressed, err := posesource.Compress(data)
		if err != nil {
			return err
		}
		data = compressed
	}
	if err := os.WriteFile(o.Output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", o.Output).Int("bytes", len(data)).Msg("report written")
	return nil
}
