package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/utils"
)

// Segmenter runs one segmentation. *pipeline.Pipeline satisfies it.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image, progress pipeline.ProgressCallback) (*pipeline.Result, error)
}

// processSingleImage loads, segments and optionally renders one file.
func processSingleImage(ctx context.Context, seg Segmenter, path string, cfg Config) (*pipeline.Result, error) {
	if !utils.IsSupportedImage(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, err
	}

	res, err := seg.Segment(ctx, img, nil)
	if err != nil {
		return nil, err
	}

	if cfg.OverlayDir != "" {
		if err := saveOverlay(img, res, path, cfg); err != nil {
			return res, err
		}
	}
	return res, nil
}

func saveOverlay(img image.Image, res *pipeline.Result, path string, cfg Config) error {
	if err := os.MkdirAll(cfg.OverlayDir, 0o750); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}
	base := filepath.Base(path)
	outPath := filepath.Join(cfg.OverlayDir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
	return utils.SavePNG(outPath, pipeline.RenderOverlay(img, res, cfg.Style))
}

// processImagesParallel fans the files out over a fixed worker pool. Results
// keep the input order. With FailFast the first error cancels the remaining
// work and is returned.
func processImagesParallel(parent context.Context, seg Segmenter, files []string, workers int, cfg Config) ([]ImageResult, error) {
	results := make([]ImageResult, len(files))
	for i, path := range files {
		results[i].File = path
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				path := files[i]
				res, err := processSingleImage(ctx, seg, path, cfg)
				results[i].Result = res
				if err != nil {
					results[i].Error = err.Error()
					cfg.Logger.Warn("Image failed", "file", path, "error", err)
					if cfg.FailFast {
						once.Do(func() {
							firstErr = fmt.Errorf("%s: %w", path, err)
							cancel()
						})
					}
					continue
				}
				cfg.Logger.Debug("Image segmented", "file", path, "points", len(res.Points), "rounds", res.Rounds)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return results, firstErr
	}
	return results, parent.Err()
}
