package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
	"github.com/MeKo-Tech/snake/internal/version"
)

const (
	formatJSON    = "json"
	formatOverlay = "overlay"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Short(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Error encoding health response", "error", err)
	}
}

// segmentHandler runs the contour over an uploaded image.
func (s *Server) segmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Set content length limit
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	// Parse multipart form
	if err := r.ParseMultipartForm(limit); err != nil {
		// Distinguish body-too-large from generic parse error
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	// Get uploaded file
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	// Read file content
	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	// Decode image
	img, _, err := utils.DecodeImage(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	opts, err := optionsFromForm(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Determine output format: default json; allow 'format' in query or form
	format := strings.ToLower(r.FormValue("format"))
	if format == "" {
		format = strings.ToLower(r.URL.Query().Get("format"))
	}
	if format != "" && format != formatJSON && format != formatOverlay {
		s.writeErrorResponse(w, fmt.Sprintf("Unsupported format %q", format), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	// Run the contour
	out := s.segment(ctx, img, opts, nil)
	recordSegment("http", out)
	if out.err != nil {
		s.writeErrorResponse(w, out.err.Error(), statusFor(out.err))
		return
	}

	// overlay image output
	if format == formatOverlay {
		s.writeOverlay(w, r, img, out.result)
		return
	}

	// default: json
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SegmentResponse{Success: true, Result: out.result}); err != nil {
		s.logger.Error("Error encoding segment response", "error", err)
	}
}

// segment builds a pipeline for opts and runs it.
func (s *Server) segment(ctx context.Context, img image.Image, opts segmentOptions, progress pipeline.ProgressCallback) segmentOutcome {
	start := time.Now()
	cfg, err := opts.apply(s.base)
	if err != nil {
		return segmentOutcome{err: err, elapsed: time.Since(start)}
	}
	// Ceilings bound the merged config, base values included
	if err := s.limit(&cfg); err != nil {
		return segmentOutcome{err: err, elapsed: time.Since(start)}
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	pl, err := s.build(cfg)
	if err != nil {
		return segmentOutcome{err: fmt.Errorf("%w: %w", snake.ErrInvalidInput, err), elapsed: time.Since(start)}
	}
	res, err := pl.Segment(ctx, img, progress)
	return segmentOutcome{result: res, err: err, elapsed: time.Since(start)}
}

func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeoutSec > 0 {
		return context.WithTimeout(parent, time.Duration(s.timeoutSec)*time.Second)
	}
	return context.WithCancel(parent)
}

// writeOverlay renders the contour over the uploaded image as PNG.
func (s *Server) writeOverlay(w http.ResponseWriter, r *http.Request, img image.Image, res *pipeline.Result) {
	style := pipeline.DefaultStyle()
	style.PointColor = utils.ParseHexColor(r.FormValue("point_color"), utils.ParseHexColor(s.overlayPointColor, style.PointColor))
	style.LineColor = utils.ParseHexColor(r.FormValue("line_color"), utils.ParseHexColor(s.overlayLineColor, style.LineColor))

	ov := pipeline.RenderOverlay(img, res, style)
	if ov == nil {
		http.Error(w, "overlay failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, ov); err != nil {
		s.logger.Error("Error encoding overlay", "error", err)
	}
}

// statusFor maps segmentation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, snake.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, snake.ErrOutOfBounds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse writes an error response in JSON format.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(SegmentResponse{Success: false, Error: message}); err != nil {
		// Log error, but can't send another response
		s.logger.Error("Error writing error response", "error", err)
	}
}
