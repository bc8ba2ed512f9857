package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Segmentation metrics
	segmentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_segment_requests_total",
			Help: "Total number of segmentation requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	segmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snake_segment_duration_seconds",
			Help:    "Segmentation duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	segmentRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snake_segment_rounds",
			Help:    "Rounds run per segmentation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	contourPoints = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snake_contour_points",
			Help:    "Number of points in the final contour",
			Buckets: []float64{3, 8, 16, 32, 64, 128, 256, 512},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_rate_limit_hits_total",
			Help: "Total number of throttled requests",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snake_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snake_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

func recordSegment(transport string, res segmentOutcome) {
	status := "success"
	if res.err != nil {
		status = "error"
	}
	segmentRequestsTotal.WithLabelValues(transport, status).Inc()
	segmentDuration.WithLabelValues(transport).Observe(res.elapsed.Seconds())
	if res.result != nil {
		segmentRounds.Observe(float64(res.result.Rounds))
		contourPoints.Observe(float64(len(res.result.Points)))
	}
}
