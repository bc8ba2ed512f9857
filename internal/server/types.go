package server

import (
	"context"
	"image"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// segmenter is the pipeline surface the handlers need.
type segmenter interface {
	Segment(ctx context.Context, img image.Image, progress pipeline.ProgressCallback) (*pipeline.Result, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	base              pipeline.Config
	build             func(pipeline.Config) (segmenter, error)
	corsOrigin        string
	maxUploadMB       int64
	timeoutSec        int
	overlayPointColor string
	overlayLineColor  string
	maxPoints         int
	maxRounds         int
	rateLimiter       *RateLimiter
	logger            *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	CORSOrigin        string
	MaxUploadMB       int64
	TimeoutSec        int
	PipelineConfig    pipeline.Config
	OverlayPointColor string
	OverlayLineColor  string

	// MaxPoints and MaxRounds bound per-request work. Zero selects
	// DefaultMaxPoints and DefaultMaxRounds.
	MaxPoints int
	MaxRounds int
	RateLimit RateLimitConfig
	Logger    *slog.Logger
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// SegmentResponse wraps a segmentation result or an error.
type SegmentResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func buildPipeline(cfg pipeline.Config) (segmenter, error) {
	return pipeline.NewBuilder().WithConfig(cfg).Build()
}

// NewServer creates a new segmentation server. The base pipeline config is
// validated up front; requests may override parts of it.
func NewServer(config Config) (*Server, error) {
	if _, err := buildPipeline(config.PipelineConfig); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 10
	}

	maxPoints := config.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	maxRounds := config.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	var limiter *RateLimiter
	if config.RateLimit.Enabled {
		limiter = NewRateLimiter(config.RateLimit)
	}

	return &Server{
		base:              config.PipelineConfig,
		build:             buildPipeline,
		corsOrigin:        config.CORSOrigin,
		maxUploadMB:       maxUpload,
		timeoutSec:        config.TimeoutSec,
		overlayPointColor: config.OverlayPointColor,
		overlayLineColor:  config.OverlayLineColor,
		maxPoints:         maxPoints,
		maxRounds:         maxRounds,
		rateLimiter:       limiter,
		logger:            logger,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/segment", s.corsMiddleware(s.rateLimitMiddleware(s.segmentHandler)))
	mux.HandleFunc("/ws/segment", s.rateLimitMiddleware(s.segmentWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with every route installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
