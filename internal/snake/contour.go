package snake

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// MinPoints is the smallest accepted contour.
const MinPoints = 3

// Contour is a closed polygon of points. Point i's successor is (i+1) mod N
// and its predecessor is (i-1) mod N.
type Contour struct {
	points  []*Point
	spacing float64
	opts    options
}

// New builds a contour from its initial positions. The polygon should not
// self-intersect; that is not checked.
func New(positions []Position, opts ...Option) (*Contour, error) {
	if len(positions) < MinPoints {
		return nil, fmt.Errorf("%w: contour needs at least %d points, got %d", ErrInvalidInput, MinPoints, len(positions))
	}

	c := &Contour{points: make([]*Point, len(positions))}
	for _, opt := range opts {
		opt(&c.opts)
	}
	for i, p := range positions {
		c.points[i] = NewPoint(p.Row, p.Col)
	}
	c.updateSpacing()
	return c, nil
}

// Len returns the number of points.
func (c *Contour) Len() int { return len(c.points) }

// Successor returns the index after i, wrapping at the end.
func (c *Contour) Successor(i int) int { return (i + 1) % len(c.points) }

// Predecessor returns the index before i, wrapping at the start.
func (c *Contour) Predecessor(i int) int {
	n := len(c.points)
	return (i - 1 + n) % n
}

// Positions returns a snapshot of every point's position in contour order.
func (c *Contour) Positions() []Position {
	out := make([]Position, len(c.points))
	for i, p := range c.points {
		out[i] = p.Position
	}
	return out
}

// Position returns the position of point i.
func (c *Contour) Position(i int) Position { return c.points[i].Position }

// ChainCodes returns a copy of point i's chain-code history.
func (c *Contour) ChainCodes(i int) []ChainCode { return c.points[i].ChainCodes() }

// AverageSpacing is the mean distance between cyclically adjacent points.
func (c *Contour) AverageSpacing() float64 { return c.spacing }

// CalcEnergies runs the energy pass. Every term is computed against the
// positions as they were when the pass started.
func (c *Contour) CalcEnergies(img mat.Matrix) error {
	return c.CalcEnergiesContext(context.Background(), img)
}

// CalcEnergiesContext is CalcEnergies with a context checked before every
// point. An aborted pass leaves positions untouched and the field not ready.
func (c *Contour) CalcEnergiesContext(ctx context.Context, img mat.Matrix) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	if rows, cols := img.Dims(); rows == 0 || cols == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	logger := c.opts.log()
	debug := logger.Enabled(ctx, slog.LevelDebug)
	snapshot := c.Positions()
	for _, p := range c.points {
		p.ResetEnergies()
	}
	for i, p := range c.points {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("energy pass stopped at point %d: %w", i, err)
		}

		prior := snapshot[c.Predecessor(i)]
		next := snapshot[c.Successor(i)]

		p.CalcEnergyDistance(snapshot, c.opts.shrink)
		p.CalcEnergyDeviation(prior, next)
		clamped, err := p.CalcEnergyGradient(img, c.opts.toLow, c.opts.clamp)
		if err != nil {
			return fmt.Errorf("gradient energy for point %d: %w", i, err)
		}
		if debug {
			logger.Debug("Gradient window sampled",
				"point", i,
				"rows", [2]int{p.Row - FieldRadius, p.Row + FieldRadius},
				"cols", [2]int{p.Col - FieldRadius, p.Col + FieldRadius},
				"clamped", clamped,
				"policy", c.opts.clamp.String())
		}

		p.AddEnergies()
	}
	return nil
}

// UpdatePoints runs the update pass: each point relocates using the field of
// the preceding energy pass and records the chain code towards its
// successor. It returns how many points moved.
func (c *Contour) UpdatePoints() (int, error) {
	for i, p := range c.points {
		if !p.ready() {
			return 0, fmt.Errorf("point %d: %w", i, ErrEnergyNotReady)
		}
	}

	moved := 0
	for i, p := range c.points {
		dRow, dCol, err := p.AdjustPoint()
		if err != nil {
			return moved, err
		}
		if dRow != 0 || dCol != 0 {
			moved++
		}
		p.CalculateChainCode(c.points[c.Successor(i)].Position)
	}

	c.updateSpacing()
	return moved, nil
}

// Iterate runs one energy pass followed by one update pass.
func (c *Contour) Iterate(img mat.Matrix) (int, error) {
	return c.IterateContext(context.Background(), img)
}

// IterateContext is Iterate with cancellation. The context is checked per
// point during the energy pass and once more before the update pass.
func (c *Contour) IterateContext(ctx context.Context, img mat.Matrix) (int, error) {
	if err := c.CalcEnergiesContext(ctx, img); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("stopped before update pass: %w", err)
	}
	return c.UpdatePoints()
}

// InsertPoints doubles the point count by inserting the floored midpoint of
// every edge right after its first endpoint.
func (c *Contour) InsertPoints() {
	n := len(c.points)
	next := make([]*Point, 0, 2*n)
	for i, p := range c.points {
		mid := midpoint(p.Position, c.points[c.Successor(i)].Position)
		next = append(next, p, NewPoint(mid.Row, mid.Col))
	}
	c.points = next
	c.updateSpacing()

	c.opts.log().Debug("Inserted contour points",
		slog.Int("before", n),
		slog.Int("after", len(c.points)),
		slog.Float64("average_spacing", c.spacing))
}

func (c *Contour) updateSpacing() {
	total := 0.0
	for i, p := range c.points {
		total += distance(p.Position, c.points[c.Predecessor(i)].Position)
	}
	c.spacing = total / float64(len(c.points))
}
