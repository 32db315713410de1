package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/analysis"
	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/movement"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/similarity"
	"github.com/tensorplex-labs/choreo/internal/videometa"
)

// Handlers builds a fresh pipeline per request from the server's base
// options plus the request's overrides.
type Handlers struct {
	base []analysis.PipelineOption
}

func NewHandlers(base ...analysis.PipelineOption) *Handlers {
	return &Handlers{base: base}
}

// Register mounts every analysis route on s.
func (h *Handlers) Register(s *Server) {
	ServeRoute(s, h.Similarity)
	ServeRoute(s, h.Movement)
	ServeRoute(s, h.Clusters)
	ServeRoute(s, h.Analyze)
	ServeRoute(s, h.Mantel)
}

func (o AnalysisOptions) pipelineOptions() ([]analysis.PipelineOption, error) {
	var opts []analysis.PipelineOption
	if o.Method != "" {
		m, err := similarity.ParseMethod(o.Method)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithMethod(m))
	}
	if o.Threshold != nil {
		if *o.Threshold < 0 || *o.Threshold > 1 {
			return nil, errs.Invalid("threshold %v outside [0, 1]", *o.Threshold)
		}
		opts = append(opts, analysis.WithThreshold(*o.Threshold))
	}
	if o.MinSamples != 0 {
		opts = append(opts, analysis.WithMinSamples(o.MinSamples))
	}
	if o.Window != "" {
		w, err := signal.ParseWindow(o.Window)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithWindow(w))
	}
	if o.Interpolation != "" {
		k, err := signal.ParseInterpolation(o.Interpolation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithInterpolation(k))
	}
	if o.FPS > 0 {
		opts = append(opts, analysis.WithVideoStats(videometa.Stats{FPS: o.FPS}))
	}
	return opts, nil
}

func (h *Handlers) pipeline(c *fiber.Ctx, o AnalysisOptions) (*analysis.Pipeline, string, error) {
	extra, err := o.pipelineOptions()
	if err != nil {
		return nil, "", err
	}
	opts := append(append([]analysis.PipelineOption{}, h.base...), extra...)

	runID := RequestID(c)
	if runID == "" {
		runID = uuid.NewString()
	}
	return analysis.NewPipeline(opts...), runID, nil
}

func (h *Handlers) Similarity(c *fiber.Ctx, req SimilarityRequest) (SimilarityResponse, error) {
	p, runID, err := h.pipeline(c, req.Options)
	if err != nil {
		return SimilarityResponse{}, err
	}
	if len(req.Frames) == 0 {
		return SimilarityResponse{}, errs.Invalid("similarity: no frames")
	}

	resp := SimilarityResponse{RunID: runID}
	if len(req.Compare) > 0 {
		resp.Matrix = MatrixFromDense(p.CompareSequences(req.Frames, req.Compare))
	} else {
		resp.Matrix = MatrixFromDense(p.SimilarityMatrix(req.Frames))
	}
	return resp, nil
}

func (h *Handlers) Movement(c *fiber.Ctx, req MovementRequest) (MovementResponse, error) {
	p, runID, err := h.pipeline(c, req.Options)
	if err != nil {
		return MovementResponse{}, err
	}
	figure := movement.AllFigures
	if req.Figure != nil {
		figure = *req.Figure
	}

	report, err := p.ProcessMovement(req.Frames, figure)
	if err != nil {
		return MovementResponse{}, err
	}
	return *NewMovementResponse(runID, report), nil
}

func (h *Handlers) Clusters(c *fiber.Ctx, req ClusterRequest) (ClusterResponse, error) {
	p, runID, err := h.pipeline(c, req.Options)
	if err != nil {
		return ClusterResponse{}, err
	}
	report, err := p.Clusters(req.Frames)
	if err != nil {
		return ClusterResponse{}, err
	}
	return *NewClusterResponse(runID, report), nil
}

func (h *Handlers) Analyze(c *fiber.Ctx, req AnalyzeRequest) (AnalyzeResponse, error) {
	p, _, err := h.pipeline(c, req.Options)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	report, err := p.Run(req.Frames)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	log.Debug().
		Str("request_id", RequestID(c)).
		Str("run", report.ID).
		Msg("analysis request served")
	return *NewAnalyzeResponse(report), nil
}

func (h *Handlers) Mantel(c *fiber.Ctx, req MantelRequest) (MantelResponse, error) {
	opts := similarity.DefaultMantelOptions()
	if req.Correlation != "" {
		corr, err := similarity.ParseCorrelation(req.Correlation)
		if err != nil {
			return MantelResponse{}, err
		}
		opts.Correlation = corr
	}
	if req.Permutations < 0 {
		return MantelResponse{}, errs.Invalid("mantel: negative permutations %d", req.Permutations)
	}
	opts.Permutations = req.Permutations
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}

	p := analysis.NewPipeline(append(append([]analysis.PipelineOption{}, h.base...), analysis.WithMantel(opts))...)
	res, err := p.MantelTest(req.A, req.B)
	if err != nil {
		return MantelResponse{}, err
	}
	return MantelResponse{
		Statistic: Float(res.Statistic),
		PValue:    Float(res.PValue),
		N:         res.N,
	}, nil
}
