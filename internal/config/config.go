package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/snake/internal/edges"
	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/server"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
)

// Config represents the complete configuration for the snake application.
// It covers the segment and serve commands and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Edges   edges.Config           `mapstructure:"edges" yaml:"edges" json:"edges"`
	Contour pipeline.ContourConfig `mapstructure:"contour" yaml:"contour" json:"contour"`
	Padding PaddingConfig          `mapstructure:"padding" yaml:"padding" json:"padding"`
	Image   ImageConfig            `mapstructure:"image" yaml:"image" json:"image"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch configuration (for batch command)
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// BatchConfig contains settings for segmenting many images at once.
type BatchConfig struct {
	Workers   int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	FailFast  bool `mapstructure:"fail_fast" yaml:"fail_fast" json:"fail_fast"`
}

// PaddingConfig surrounds the edge map before the contour runs.
type PaddingConfig struct {
	Margin int     `mapstructure:"margin" yaml:"margin" json:"margin"`
	Value  float64 `mapstructure:"value" yaml:"value" json:"value"`
}

// ImageConfig bounds accepted input sizes.
type ImageConfig struct {
	MinSize int `mapstructure:"min_size" yaml:"min_size" json:"min_size"`
	MaxSize int `mapstructure:"max_size" yaml:"max_size" json:"max_size"`
}

// OutputConfig contains result formatting and overlay settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	PointColor string `mapstructure:"point_color" yaml:"point_color" json:"point_color"`
	LineColor  string `mapstructure:"line_color" yaml:"line_color" json:"line_color"`
	CrossSize  int    `mapstructure:"cross_size" yaml:"cross_size" json:"cross_size"`
	CrossWidth int    `mapstructure:"cross_width" yaml:"cross_width" json:"cross_width"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Ceilings on per-request work.
	MaxPoints int             `mapstructure:"max_points" yaml:"max_points" json:"max_points"`
	MaxRounds int             `mapstructure:"max_rounds" yaml:"max_rounds" json:"max_rounds"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig throttles segmentation requests per client IP.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// DefaultConfig returns a configuration with sensible defaults. Unlike the
// library default, the command line clamps gradient windows on every side so
// circles near the border do not abort the run.
func DefaultConfig() Config {
	contour := pipeline.DefaultContourConfig()
	contour.Clamp = snake.ClampBoth.String()
	constraints := utils.DefaultImageConstraints()

	return Config{
		LogLevel: "info",
		Edges:    edges.DefaultConfig(),
		Contour:  contour,
		Padding:  PaddingConfig{Margin: 0, Value: 255},
		Image:    ImageConfig{MinSize: constraints.MinWidth, MaxSize: constraints.MaxWidth},
		Output: OutputConfig{
			Format:     "text",
			PointColor: "#FF0000",
			LineColor:  "#00C800",
			CrossSize:  utils.DefaultCrossSize,
			CrossWidth: utils.DefaultCrossWidth,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			MaxPoints:       server.DefaultMaxPoints,
			MaxRounds:       server.DefaultMaxRounds,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxDataPerDay:     100 * 1024 * 1024,
			},
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	// Validate output format
	validFormats := []string{"text", "json", "yaml"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	// Validate server settings
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.MaxPoints <= 0 || c.Server.MaxRounds <= 0 {
		return fmt.Errorf("invalid server limits: max_points %d, max_rounds %d (must be positive)", c.Server.MaxPoints, c.Server.MaxRounds)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDay < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d (must be non-negative)", c.Batch.Workers)
	}
	if c.Image.MinSize <= 0 || c.Image.MaxSize < c.Image.MinSize {
		return fmt.Errorf("invalid image size bounds: %d..%d", c.Image.MinSize, c.Image.MaxSize)
	}

	// Validate pipeline settings through the pipeline itself
	if err := c.ToPipelineConfig().Validate(); err != nil {
		return fmt.Errorf("invalid pipeline settings: %w", err)
	}
	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Edges = c.Edges
	cfg.Contour = c.Contour
	cfg.Contour.Points = append([]snake.Position(nil), c.Contour.Points...)
	cfg.Padding = c.Padding.Margin
	cfg.PadValue = c.Padding.Value
	cfg.Constraints = utils.ImageConstraints{
		MinWidth:  c.Image.MinSize,
		MinHeight: c.Image.MinSize,
		MaxWidth:  c.Image.MaxSize,
		MaxHeight: c.Image.MaxSize,
	}
	return cfg
}

// ToServerConfig converts the config to the HTTP server configuration.
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Host:              c.Server.Host,
		Port:              c.Server.Port,
		CORSOrigin:        c.Server.CORSOrigin,
		MaxUploadMB:       int64(c.Server.MaxUploadMB),
		TimeoutSec:        c.Server.TimeoutSec,
		MaxPoints:         c.Server.MaxPoints,
		MaxRounds:         c.Server.MaxRounds,
		RateLimit: server.RateLimitConfig{
			Enabled:           c.Server.RateLimit.Enabled,
			RequestsPerMinute: c.Server.RateLimit.RequestsPerMinute,
			RequestsPerHour:   c.Server.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: c.Server.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     c.Server.RateLimit.MaxDataPerDay,
		},
		PipelineConfig:    c.ToPipelineConfig(),
		OverlayPointColor: c.Output.PointColor,
		OverlayLineColor:  c.Output.LineColor,
	}
}

// OverlayStyle returns the overlay style described by the output settings.
func (c *Config) OverlayStyle() pipeline.Style {
	style := pipeline.DefaultStyle()
	style.PointColor = utils.ParseHexColor(c.Output.PointColor, style.PointColor)
	style.LineColor = utils.ParseHexColor(c.Output.LineColor, style.LineColor)
	if c.Output.CrossSize > 0 {
		style.CrossSize = c.Output.CrossSize
	}
	if c.Output.CrossWidth > 0 {
		style.CrossWidth = c.Output.CrossWidth
	}
	return style
}
