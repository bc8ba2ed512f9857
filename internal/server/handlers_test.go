package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/snake/internal/edges"
	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthHandler(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		status int
	}{
		{"get", http.MethodGet, http.StatusOK},
		{"post not allowed", http.MethodPost, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(tt.method, "/health", nil))
			assert.Equal(t, tt.status, rr.Code)
			if tt.status != http.StatusOK {
				return
			}
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.NotEmpty(t, resp.Time)
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/segment", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Body.String())
}

func TestServer_SegmentJSON(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp SegmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, squareCorners(), resp.Result.Positions())
	assert.Equal(t, 4, resp.Result.Rounds)
}

func TestServer_SegmentOverrides(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), map[string]string{
		"rounds":  "0",
		"contour": "20,20;20,30;30,25",
	}))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp SegmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []snake.Position{{Row: 20, Col: 20}, {Row: 20, Col: 30}, {Row: 30, Col: 25}}, resp.Result.Positions())
	assert.Zero(t, resp.Result.Rounds)
}

func TestServer_SegmentOverlay(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), map[string]string{
		"format":      "overlay",
		"point_color": "#0000ff",
	}))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	r, g, b, _ := img.At(39, 25).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestServer_SegmentErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		substr string
	}{
		{
			name:   "wrong method",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/segment", nil) },
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "not multipart",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodPost, "/segment", strings.NewReader("x")) },
			status: http.StatusBadRequest,
			substr: "Failed to parse form data",
		},
		{
			name:   "missing image",
			req:    func() *http.Request { return multipartRequest(t, nil, map[string]string{"rounds": "1"}) },
			status: http.StatusBadRequest,
			substr: "No image file provided",
		},
		{
			name:   "undecodable image",
			req:    func() *http.Request { return multipartRequest(t, []byte("nope"), nil) },
			status: http.StatusBadRequest,
			substr: "Invalid image format",
		},
		{
			name:   "bad rounds",
			req:    func() *http.Request { return multipartRequest(t, outlinePNG(t), map[string]string{"rounds": "many"}) },
			status: http.StatusBadRequest,
			substr: "rounds must be an integer",
		},
		{
			name:   "negative rounds",
			req:    func() *http.Request { return multipartRequest(t, outlinePNG(t), map[string]string{"rounds": "-3"}) },
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown format",
			req:    func() *http.Request { return multipartRequest(t, outlinePNG(t), map[string]string{"format": "csv"}) },
			status: http.StatusBadRequest,
		},
		{
			name: "contour leaves image",
			req: func() *http.Request {
				return multipartRequest(t, outlinePNG(t), map[string]string{"contour": "1,1;1,5;5,1", "rounds": "1"})
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "too large",
			req: func() *http.Request {
				return multipartRequest(t, bytes.Repeat([]byte{0}, 2*1024*1024), nil)
			},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, tt.req())
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.substr != "" {
				var resp SegmentResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.Contains(t, resp.Error, tt.substr)
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), multipartRequest(t, outlinePNG(t), nil))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "snake_http_requests_total")
	assert.Contains(t, string(body), "snake_segment_requests_total")
	assert.Contains(t, string(body), "snake_contour_points")
}

func TestNewServer_RejectsInvalidPipeline(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Contour.Clamp = "nowhere"
	_, err := NewServer(Config{PipelineConfig: cfg})
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(snake.ErrInvalidInput))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(snake.ErrOutOfBounds))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestServer_SegmentLimits(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Edges.Method = edges.MethodNone
	cfg.Contour.Rounds = 1
	cfg.Contour.InitPoints = 8
	s, err := NewServer(Config{MaxUploadMB: 1, PipelineConfig: cfg, MaxPoints: 8, MaxRounds: 5})
	require.NoError(t, err)

	tests := []struct {
		name   string
		fields map[string]string
		status int
		substr string
	}{
		{"rounds over limit", map[string]string{"rounds": "6"}, http.StatusBadRequest, "rounds 6 exceeds server limit 5"},
		{"points over limit", map[string]string{"points": "9"}, http.StatusBadRequest, "points 9 exceeds server limit 8"},
		{"max points over limit", map[string]string{"max_points": "100"}, http.StatusBadRequest, "max_points 100 exceeds server limit 8"},
		{
			"contour over limit",
			map[string]string{"contour": "20,20;20,22;20,24;20,26;20,28;22,28;24,28;26,28;28,28"},
			http.StatusBadRequest,
			"contour of 9 points exceeds server limit 8",
		},
		{"at the limits", map[string]string{"rounds": "5", "points": "8", "max_points": "8", "clamp": "both"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), tt.fields))
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			var resp SegmentResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.status == http.StatusOK, resp.Success)
			if tt.substr != "" {
				assert.Contains(t, resp.Error, tt.substr)
			}
		})
	}
}

func TestServer_LimitCapsInsertion(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, DefaultMaxPoints, s.maxPoints)
	assert.Equal(t, DefaultMaxRounds, s.maxRounds)

	cfg := pipeline.DefaultConfig()
	cfg.Contour.InsertThreshold = 1
	require.NoError(t, s.limit(&cfg))
	assert.Equal(t, DefaultMaxPoints, cfg.Contour.MaxPoints)

	cfg.Contour.MaxPoints = 64
	require.NoError(t, s.limit(&cfg))
	assert.Equal(t, 64, cfg.Contour.MaxPoints)
}

func TestServer_SegmentTimeoutInsideRound(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Edges.Method = edges.MethodNone
	cfg.Contour.Rounds = 1
	s, err := NewServer(Config{MaxUploadMB: 1, TimeoutSec: 1, PipelineConfig: cfg, MaxPoints: 12000})
	require.NoError(t, err)

	start := time.Now()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), map[string]string{"points": "12000"}))

	require.Equal(t, http.StatusGatewayTimeout, rr.Code, rr.Body.String())
	assert.Less(t, time.Since(start), 5*time.Second)
	var resp SegmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "deadline exceeded")
}

func TestServer_SegmentRateLimited(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Edges.Method = edges.MethodNone
	cfg.Contour.Rounds = 1
	cfg.Contour.Points = octagon()
	s, err := NewServer(Config{
		CORSOrigin:     "*",
		MaxUploadMB:    1,
		PipelineConfig: cfg,
		RateLimit:      RateLimitConfig{Enabled: true, RequestsPerMinute: 2},
	})
	require.NoError(t, err)
	handler := s.Handler()

	send := func(addr string) *httptest.ResponseRecorder {
		req := multipartRequest(t, outlinePNG(t), nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for range 2 {
		require.Equal(t, http.StatusOK, send("10.0.0.1:4000").Code)
	}
	rr := send("10.0.0.1:4001")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "minute", rr.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "rate limit exceeded for minute")

	assert.Equal(t, http.StatusOK, send("10.0.0.2:4000").Code, "other clients are unaffected")

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestServer_RateLimitDisabledByDefault(t *testing.T) {
	s := newTestServer(t)
	assert.Nil(t, s.rateLimiter)
	for range 5 {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, multipartRequest(t, outlinePNG(t), map[string]string{"rounds": "0"}))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}
