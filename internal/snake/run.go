package snake

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// RunConfig controls the round loop.
type RunConfig struct {
	// Rounds is the number of iterations to run.
	Rounds int
	// InsertThreshold triggers InsertPoints after a round whose average
	// spacing exceeds it. Zero disables insertion.
	InsertThreshold float64
	// MaxPoints caps insertion. Zero means no cap.
	MaxPoints int
	// StopWhenStill ends the loop after a round in which no point moved.
	StopWhenStill bool
}

// Validate checks the configuration.
func (rc RunConfig) Validate() error {
	if rc.Rounds < 0 {
		return fmt.Errorf("%w: rounds must not be negative, got %d", ErrInvalidInput, rc.Rounds)
	}
	if rc.InsertThreshold < 0 {
		return fmt.Errorf("%w: insert threshold must not be negative, got %v", ErrInvalidInput, rc.InsertThreshold)
	}
	if rc.MaxPoints < 0 {
		return fmt.Errorf("%w: max points must not be negative, got %d", ErrInvalidInput, rc.MaxPoints)
	}
	return nil
}

// RoundStats describes one completed round.
type RoundStats struct {
	Round          int           `json:"round"`
	Points         int           `json:"points"`
	Moved          int           `json:"moved"`
	AverageSpacing float64       `json:"average_spacing"`
	Inserted       bool          `json:"inserted"`
	Duration       time.Duration `json:"duration_ns"`
}

// Observer is called after every round.
type Observer func(RoundStats)

// RunResult summarizes a Run.
type RunResult struct {
	Rounds     int  `json:"rounds" yaml:"rounds"`
	Insertions int  `json:"insertions" yaml:"insertions"`
	Converged  bool `json:"converged" yaml:"converged"`
}

// Run iterates the contour over img. The context is checked between rounds
// and inside each round's energy pass; a canceled round leaves every point
// where the previous round put it.
func (c *Contour) Run(ctx context.Context, img mat.Matrix, cfg RunConfig, observe Observer) (RunResult, error) {
	var res RunResult
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	logger := c.opts.log()
	for round := 1; round <= cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("stopped before round %d: %w", round, err)
		}

		start := time.Now()
		moved, err := c.IterateContext(ctx, img)
		if err != nil {
			return res, fmt.Errorf("round %d: %w", round, err)
		}
		res.Rounds = round

		inserted := false
		if c.shouldInsert(cfg) {
			c.InsertPoints()
			inserted = true
			res.Insertions++
		}

		stats := RoundStats{
			Round:          round,
			Points:         c.Len(),
			Moved:          moved,
			AverageSpacing: c.spacing,
			Inserted:       inserted,
			Duration:       time.Since(start),
		}
		logger.Debug("Contour round completed",
			"round", stats.Round,
			"points", stats.Points,
			"moved", stats.Moved,
			"average_spacing", stats.AverageSpacing,
			"inserted", stats.Inserted)
		if observe != nil {
			observe(stats)
		}

		if cfg.StopWhenStill && moved == 0 && !inserted {
			res.Converged = true
			break
		}
	}
	return res, nil
}

func (c *Contour) shouldInsert(cfg RunConfig) bool {
	if cfg.InsertThreshold <= 0 || c.spacing <= cfg.InsertThreshold {
		return false
	}
	return cfg.MaxPoints == 0 || 2*c.Len() <= cfg.MaxPoints
}
