package batch

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/snake/internal/pipeline"
)

// Config holds all configuration for batch segmentation.
type Config struct {
	// Parallel processing settings. Workers <= 0 uses one worker per CPU.
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// OverlayDir receives <name>_overlay.png for every segmented image.
	OverlayDir string
	Style      pipeline.Style

	// FailFast stops the batch at the first failing image.
	FailFast bool

	Logger *slog.Logger
}

// ImageResult is the outcome for one input file.
type ImageResult struct {
	File   string           `json:"file" yaml:"file"`
	Result *pipeline.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the result of batch processing in input order.
type Result struct {
	Images      []ImageResult `json:"images" yaml:"images"`
	Duration    time.Duration `json:"-" yaml:"-"`
	WorkerCount int           `json:"-" yaml:"-"`
}

// Stats summarises a batch run.
type Stats struct {
	Total            int
	Processed        int
	Failed           int
	Workers          int
	Duration         time.Duration
	AveragePerImage  time.Duration
	ThroughputPerSec float64
}

// Stats computes processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Images), Workers: r.WorkerCount, Duration: r.Duration}
	for _, img := range r.Images {
		if img.Error != "" {
			s.Failed++
		} else {
			s.Processed++
		}
	}
	if s.Total > 0 {
		s.AveragePerImage = r.Duration / time.Duration(s.Total)
	}
	if secs := r.Duration.Seconds(); secs > 0 {
		s.ThroughputPerSec = float64(s.Total) / secs
	}
	return s
}

// PrintStats writes processing statistics to w.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.Total)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.Processed)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}
