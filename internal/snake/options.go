package snake

import (
	"fmt"
	"log/slog"
	"strings"
)

// ClampPolicy decides how gradient samples outside the image are handled.
type ClampPolicy int

const (
	// ClampUpper clamps only coordinates past the last row or column.
	// Negative coordinates fail with ErrOutOfBounds, so the contour must stay
	// at least FieldRadius pixels away from the top and left borders.
	ClampUpper ClampPolicy = iota
	// ClampBoth clamps coordinates into the image on every side.
	ClampBoth
)

// String returns the policy name used in configuration files.
func (p ClampPolicy) String() string {
	switch p {
	case ClampUpper:
		return "upper"
	case ClampBoth:
		return "both"
	default:
		return fmt.Sprintf("ClampPolicy(%d)", int(p))
	}
}

// ParseClampPolicy parses "upper" or "both".
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upper":
		return ClampUpper, nil
	case "both":
		return ClampBoth, nil
	default:
		return ClampUpper, fmt.Errorf("%w: unknown clamp policy %q (must be upper or both)", ErrInvalidInput, s)
	}
}

// apply maps (r, c) into a rows x cols image according to the policy.
func (p ClampPolicy) apply(r, c, rows, cols int) (int, int, bool, error) {
	changed := false
	if r >= rows {
		r, changed = rows-1, true
	}
	if c >= cols {
		c, changed = cols-1, true
	}
	if r < 0 || c < 0 {
		if p != ClampBoth {
			return r, c, changed, fmt.Errorf("%w: (%d,%d) with clamp policy %s", ErrOutOfBounds, r, c, p)
		}
		r, c, changed = max(r, 0), max(c, 0), true
	}
	return r, c, changed, nil
}

type options struct {
	shrink bool
	toLow  bool
	clamp  ClampPolicy
	logger *slog.Logger
}

// Option configures a Contour.
type Option func(*options)

// WithShrink makes the distance term prefer positions close to the contour,
// so the contour contracts instead of growing.
func WithShrink(shrink bool) Option {
	return func(o *options) { o.shrink = shrink }
}

// WithToLow makes the gradient term prefer dark pixels.
func WithToLow(toLow bool) Option {
	return func(o *options) { o.toLow = toLow }
}

// WithClamp sets the gradient sampling clamp policy.
func WithClamp(policy ClampPolicy) Option {
	return func(o *options) { o.clamp = policy }
}

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
