// Package pipeline wires edge detection, optional padding and the active
// contour into a single Segment call.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/snake/internal/edges"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
	"gonum.org/v1/gonum/mat"
)

// Pipeline segments images with a fixed configuration. It holds no mutable
// state, so one Pipeline may serve concurrent Segment calls.
type Pipeline struct {
	cfg Config
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

func (p *Pipeline) logger() *slog.Logger {
	if p.cfg.Logger != nil {
		return p.cfg.Logger
	}
	return slog.Default()
}

// Segment runs edge detection and then the contour over img.
func (p *Pipeline) Segment(ctx context.Context, img image.Image, progress ProgressCallback) (*Result, error) {
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	res, err := p.segment(ctx, img, progress)
	if err != nil {
		progress.OnError(err)
		return nil, err
	}
	progress.OnComplete(res)
	return res, nil
}

func (p *Pipeline) segment(ctx context.Context, img image.Image, progress ProgressCallback) (*Result, error) {
	start := time.Now()
	if err := utils.ValidateImageConstraints(img, p.cfg.Constraints); err != nil {
		return nil, fmt.Errorf("%w: %w", snake.ErrInvalidInput, err)
	}

	edgeMap, err := edges.Detect(img, p.cfg.Edges)
	if err != nil {
		return nil, fmt.Errorf("edge detection: %w", err)
	}
	edgesDone := time.Now()

	rows, cols := edgeMap.Dims()
	initial, err := p.initialContour(rows, cols)
	if err != nil {
		return nil, err
	}

	work, err := p.pad(edgeMap)
	if err != nil {
		return nil, err
	}
	shifted := make([]snake.Position, len(initial))
	for i, pos := range initial {
		shifted[i] = pos.Offset(p.cfg.Padding, p.cfg.Padding)
	}

	clamp, err := snake.ParseClampPolicy(p.cfg.Contour.Clamp)
	if err != nil {
		return nil, err
	}
	contour, err := snake.New(shifted,
		snake.WithShrink(p.cfg.Contour.Shrink),
		snake.WithToLow(p.cfg.Contour.ToLow),
		snake.WithClamp(clamp),
		snake.WithLogger(p.logger()),
	)
	if err != nil {
		return nil, err
	}

	progress.OnStart(contour.Len(), p.cfg.Contour.Rounds)
	run, err := contour.Run(ctx, work, snake.RunConfig{
		Rounds:          p.cfg.Contour.Rounds,
		InsertThreshold: p.cfg.Contour.InsertThreshold,
		MaxPoints:       p.cfg.Contour.MaxPoints,
		StopWhenStill:   p.cfg.Contour.StopWhenStill,
	}, progress.OnRound)
	if err != nil {
		return nil, err
	}
	contourDone := time.Now()

	res := &Result{
		Width:          cols,
		Height:         rows,
		EdgeMethod:     p.cfg.Edges.Method,
		Initial:        initial,
		Points:         make([]PointResult, contour.Len()),
		AverageSpacing: contour.AverageSpacing(),
		Rounds:         run.Rounds,
		Insertions:     run.Insertions,
		Converged:      run.Converged,
	}
	for i := range contour.Len() {
		pos := contour.Position(i).Offset(-p.cfg.Padding, -p.cfg.Padding)
		res.Points[i] = PointResult{Row: pos.Row, Col: pos.Col, ChainCodes: contour.ChainCodes(i)}
	}
	res.Processing.EdgesNs = edgesDone.Sub(start).Nanoseconds()
	res.Processing.ContourNs = contourDone.Sub(edgesDone).Nanoseconds()
	res.Processing.TotalNs = time.Since(start).Nanoseconds()

	p.logger().Debug("Segmentation completed",
		"width", cols,
		"height", rows,
		"points", len(res.Points),
		"rounds", res.Rounds,
		"insertions", res.Insertions,
		"converged", res.Converged,
		"total_ns", res.Processing.TotalNs)
	return res, nil
}

// initialContour returns the starting polygon in unpadded image coordinates.
func (p *Pipeline) initialContour(rows, cols int) ([]snake.Position, error) {
	cc := p.cfg.Contour
	if len(cc.Points) > 0 {
		return append([]snake.Position(nil), cc.Points...), nil
	}

	center := snake.Position{Row: rows / 2, Col: cols / 2}
	if cc.CenterRow >= 0 {
		center.Row = cc.CenterRow
	}
	if cc.CenterCol >= 0 {
		center.Col = cc.CenterCol
	}
	radius := cc.InitRadius
	if radius == 0 {
		radius = float64(min(rows, cols)) / 4
	}
	return snake.Circle(center, radius, cc.InitPoints)
}

func (p *Pipeline) pad(m *mat.Dense) (*mat.Dense, error) {
	if p.cfg.Padding == 0 {
		return m, nil
	}
	return utils.PadMatrix(m, p.cfg.Padding, p.cfg.PadValue)
}
