package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

const (
	RequestIDHeader = "x-request-id"

	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 16 * 1024 * 1024 // 16MB
)

// Server is the analysis HTTP server.
type Server struct {
	App    *fiber.App
	config *ServerConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouterHandler is a generic handler function type
type RouterHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// AnalysisOptions overrides the server's analysis parameters for one
// request. Zero values keep the server defaults.
type AnalysisOptions struct {
	Method        string   `json:"method,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
	MinSamples    int      `json:"min_samples,omitempty"`
	Window        string   `json:"window,omitempty"`
	Interpolation string   `json:"interpolation,omitempty"`
	FPS           float64  `json:"fps,omitempty"`
}

type SimilarityRequest struct {
	Frames  pose.Sequence   `json:"frames"`
	Compare pose.Sequence   `json:"compare,omitempty"`
	Options AnalysisOptions `json:"options"`
}

type SimilarityResponse struct {
	RunID  string `json:"run_id"`
	Matrix Matrix `json:"matrix"`
}

type MovementRequest struct {
	Frames pose.Sequence `json:"frames"`
	// Figure pins one figure; nil measures all of them.
	Figure  *int            `json:"figure,omitempty"`
	Options AnalysisOptions `json:"options"`
}

type MovementResponse struct {
	RunID         string   `json:"run_id"`
	Method        string   `json:"method"`
	FigureList    string   `json:"figure_list"`
	Figures       []int    `json:"figures"`
	Timestamps    Series   `json:"timestamps"`
	WindowLength  int      `json:"window_length"`
	Series        []Series `json:"series"`
	Smoothed      []Series `json:"smoothed"`
	Consolidated  []Series `json:"consolidated"`
	FrameMeans    Series   `json:"frame_means"`
	FrameUpper    Series   `json:"frame_upper"`
	FrameLower    Series   `json:"frame_lower"`
	KeypointTotal []Series `json:"keypoint_totals,omitempty"`
	KeypointMeans Series   `json:"keypoint_means,omitempty"`
	KeypointStds  Series   `json:"keypoint_stds,omitempty"`
}

type ClusterRequest struct {
	Frames  pose.Sequence   `json:"frames"`
	Options AnalysisOptions `json:"options"`
}

// ClosestMatch maps a pose to its heatmap row.
type ClosestMatch struct {
	pose.Descriptor
	Row int `json:"row"`
}

type ClusterResponse struct {
	RunID          string            `json:"run_id"`
	Labels         []int             `json:"labels"`
	Descriptors    []pose.Descriptor `json:"descriptors"`
	Clusters       int               `json:"clusters"`
	Noise          int               `json:"noise"`
	ClusterLabels  []int             `json:"cluster_labels"`
	AveragePoses   []pose.Pose       `json:"average_poses"`
	Heatmap        [][]int           `json:"heatmap"`
	ClosestMatches []ClosestMatch    `json:"closest_matches"`
}

type SynchronyResponse struct {
	Means                 Series `json:"means"`
	Stds                  Series `json:"stds"`
	Upper                 Series `json:"upper"`
	Lower                 Series `json:"lower"`
	SmoothedMeans         Series `json:"smoothed_means"`
	SmoothedUpper         Series `json:"smoothed_upper"`
	SmoothedLower         Series `json:"smoothed_lower"`
	Mean                  Float  `json:"mean"`
	Std                   Float  `json:"std"`
	SmoothedMean          Float  `json:"smoothed_mean"`
	SmoothedStd           Float  `json:"smoothed_std"`
	OverThreshold         Float  `json:"over_threshold"`
	SmoothedOverThreshold Float  `json:"smoothed_over_threshold"`
}

type AnalyzeRequest struct {
	Frames  pose.Sequence   `json:"frames"`
	Options AnalysisOptions `json:"options"`
}

type AnalyzeResponse struct {
	RunID      string             `json:"run_id"`
	Frames     int                `json:"frames"`
	Figures    int                `json:"figures"`
	Movement   *MovementResponse  `json:"movement,omitempty"`
	Similarity Matrix             `json:"similarity"`
	Clusters   *ClusterResponse   `json:"clusters,omitempty"`
	Synchrony  *SynchronyResponse `json:"synchrony,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

type MantelRequest struct {
	A            pose.Pose `json:"a"`
	B            pose.Pose `json:"b"`
	Correlation  string    `json:"correlation,omitempty"`
	Permutations int       `json:"permutations,omitempty"`
	Seed         uint64    `json:"seed,omitempty"`
}

type MantelResponse struct {
	Statistic Float `json:"statistic"`
	PValue    Float `json:"p_value"`
	N         int   `json:"n"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
