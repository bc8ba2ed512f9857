// Package batch segments many images with one pipeline over a worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ProcessBatch discovers the images under paths and segments them in
// parallel. Per-image failures are recorded in the result; the returned
// error is reserved for discovery problems, cancellation and FailFast.
func ProcessBatch(ctx context.Context, seg Segmenter, paths []string, cfg Config) (*Result, error) {
	if seg == nil {
		return nil, errors.New("batch: nil segmenter")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	files, err := discoverImageFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(files))
	cfg.Logger.Info("Starting batch", "images", len(files), "workers", workers)

	startTime := time.Now()
	images, err := processImagesParallel(ctx, seg, files, workers, cfg)
	result := &Result{
		Images:      images,
		Duration:    time.Since(startTime),
		WorkerCount: workers,
	}
	if err != nil {
		return result, fmt.Errorf("batch processing failed: %w", err)
	}
	return result, nil
}
