package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/snake/internal/edges"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
)

// ContourConfig configures the initial contour and the round loop.
type ContourConfig struct {
	Rounds          int     `mapstructure:"rounds" yaml:"rounds" json:"rounds"`
	InsertThreshold float64 `mapstructure:"insert_threshold" yaml:"insert_threshold" json:"insert_threshold"`
	MaxPoints       int     `mapstructure:"max_points" yaml:"max_points" json:"max_points"`
	Shrink          bool    `mapstructure:"shrink" yaml:"shrink" json:"shrink"`
	ToLow           bool    `mapstructure:"to_low" yaml:"to_low" json:"to_low"`
	Clamp           string  `mapstructure:"clamp" yaml:"clamp" json:"clamp"`
	StopWhenStill   bool    `mapstructure:"stop_when_still" yaml:"stop_when_still" json:"stop_when_still"`

	// Initial circle. A negative centre coordinate or a zero radius selects
	// the image centre and a quarter of the shorter side.
	InitPoints int     `mapstructure:"init_points" yaml:"init_points" json:"init_points"`
	InitRadius float64 `mapstructure:"init_radius" yaml:"init_radius" json:"init_radius"`
	CenterRow  int     `mapstructure:"center_row" yaml:"center_row" json:"center_row"`
	CenterCol  int     `mapstructure:"center_col" yaml:"center_col" json:"center_col"`

	// Points overrides the circle with an explicit polygon in image
	// coordinates.
	Points []snake.Position `mapstructure:"-" yaml:"points,omitempty" json:"points,omitempty"`
}

// DefaultContourConfig returns the contour defaults.
func DefaultContourConfig() ContourConfig {
	return ContourConfig{
		Rounds:     10,
		Clamp:      snake.ClampUpper.String(),
		InitPoints: 16,
		CenterRow:  -1,
		CenterCol:  -1,
	}
}

// Config holds configuration for the segmentation pipeline.
type Config struct {
	Edges       edges.Config
	Contour     ContourConfig
	Padding     int
	PadValue    float64
	Constraints utils.ImageConstraints
	Logger      *slog.Logger
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Edges:       edges.DefaultConfig(),
		Contour:     DefaultContourConfig(),
		Padding:     0,
		PadValue:    255,
		Constraints: utils.DefaultImageConstraints(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Edges.Validate(); err != nil {
		return err
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be non-negative, got %d", c.Padding)
	}
	if _, err := snake.ParseClampPolicy(c.Contour.Clamp); err != nil {
		return err
	}
	if c.Contour.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", c.Contour.Rounds)
	}
	if c.Contour.InsertThreshold < 0 {
		return fmt.Errorf("insert threshold must be non-negative, got %v", c.Contour.InsertThreshold)
	}
	if c.Contour.MaxPoints < 0 {
		return fmt.Errorf("max points must be non-negative, got %d", c.Contour.MaxPoints)
	}
	if len(c.Contour.Points) == 0 {
		if c.Contour.InitPoints < snake.MinPoints {
			return fmt.Errorf("init points must be at least %d, got %d", snake.MinPoints, c.Contour.InitPoints)
		}
		if c.Contour.InitRadius < 0 {
			return errors.New("init radius must be non-negative")
		}
	} else if len(c.Contour.Points) < snake.MinPoints {
		return fmt.Errorf("explicit contour needs at least %d points, got %d", snake.MinPoints, len(c.Contour.Points))
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithEdges sets the edge detector configuration.
func (b *Builder) WithEdges(cfg edges.Config) *Builder {
	b.cfg.Edges = cfg
	return b
}

// WithEdgeMethod selects the edge detection method.
func (b *Builder) WithEdgeMethod(method string) *Builder {
	if method != "" {
		b.cfg.Edges.Method = method
	}
	return b
}

// WithEdgeThresholds sets Canny hysteresis thresholds.
func (b *Builder) WithEdgeThresholds(low, high float64) *Builder {
	b.cfg.Edges.Low = low
	b.cfg.Edges.High = high
	return b
}

// WithRounds sets the number of iterations.
func (b *Builder) WithRounds(n int) *Builder {
	b.cfg.Contour.Rounds = n
	return b
}

// WithInsertion enables point insertion above the given average spacing,
// capped at maxPoints (0 = no cap).
func (b *Builder) WithInsertion(threshold float64, maxPoints int) *Builder {
	b.cfg.Contour.InsertThreshold = threshold
	b.cfg.Contour.MaxPoints = maxPoints
	return b
}

// WithShrink makes the contour contract.
func (b *Builder) WithShrink(shrink bool) *Builder {
	b.cfg.Contour.Shrink = shrink
	return b
}

// WithToLow makes the contour seek dark pixels.
func (b *Builder) WithToLow(toLow bool) *Builder {
	b.cfg.Contour.ToLow = toLow
	return b
}

// WithClamp sets the gradient clamp policy ("upper" or "both").
func (b *Builder) WithClamp(policy string) *Builder {
	if policy != "" {
		b.cfg.Contour.Clamp = policy
	}
	return b
}

// WithStopWhenStill ends the loop once no point moves.
func (b *Builder) WithStopWhenStill(stop bool) *Builder {
	b.cfg.Contour.StopWhenStill = stop
	return b
}

// WithCircle sets the initial circle. A negative centre coordinate keeps the
// image centre, a zero radius keeps the automatic radius.
func (b *Builder) WithCircle(centerRow, centerCol int, radius float64, n int) *Builder {
	b.cfg.Contour.CenterRow = centerRow
	b.cfg.Contour.CenterCol = centerCol
	b.cfg.Contour.InitRadius = radius
	if n > 0 {
		b.cfg.Contour.InitPoints = n
	}
	return b
}

// WithPoints sets an explicit initial polygon.
func (b *Builder) WithPoints(pts []snake.Position) *Builder {
	b.cfg.Contour.Points = append([]snake.Position(nil), pts...)
	return b
}

// WithPadding surrounds the edge map with margin pixels of value before the
// contour runs.
func (b *Builder) WithPadding(margin int, value float64) *Builder {
	b.cfg.Padding = margin
	b.cfg.PadValue = value
	return b
}

// WithLogger sets the logger handed to the contour.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.cfg.Logger = logger
	return b
}

// Config returns a copy of the current builder configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build validates configuration and returns a Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return &Pipeline{cfg: b.cfg}, nil
}
