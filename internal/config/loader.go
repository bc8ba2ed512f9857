package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "snake"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SNAKE"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that flags
// bound by the commands are seen.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on an explicit viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads the first config file found on the search paths, applies
// environment overrides and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from a specific file path. An empty path
// searches the standard locations and tolerates a missing file.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation is LoadWithFile without the final Validate.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	// Set environment variable handling
	l.setupEnvironmentVariables()
	// Set defaults
	l.setDefaults()

	if configFile != "" {
		// Check if file exists
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		// Search the standard locations
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			// Only return error if it's NOT a "config file not found" error
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Unmarshal into our config struct
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	// Set the prefix for environment variables
	l.v.SetEnvPrefix(EnvPrefix)
	// Enable automatic environment variable binding
	l.v.AutomaticEnv()
	// Replace dots and dashes with underscores in env var names
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so that env overrides reach Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	// Global settings
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	// Pipeline defaults
	l.v.SetDefault("edges.method", d.Edges.Method)
	l.v.SetDefault("edges.low", d.Edges.Low)
	l.v.SetDefault("edges.high", d.Edges.High)
	l.v.SetDefault("edges.sigma", d.Edges.Sigma)

	l.v.SetDefault("contour.rounds", d.Contour.Rounds)
	l.v.SetDefault("contour.insert_threshold", d.Contour.InsertThreshold)
	l.v.SetDefault("contour.max_points", d.Contour.MaxPoints)
	l.v.SetDefault("contour.shrink", d.Contour.Shrink)
	l.v.SetDefault("contour.to_low", d.Contour.ToLow)
	l.v.SetDefault("contour.clamp", d.Contour.Clamp)
	l.v.SetDefault("contour.stop_when_still", d.Contour.StopWhenStill)
	l.v.SetDefault("contour.init_points", d.Contour.InitPoints)
	l.v.SetDefault("contour.init_radius", d.Contour.InitRadius)
	l.v.SetDefault("contour.center_row", d.Contour.CenterRow)
	l.v.SetDefault("contour.center_col", d.Contour.CenterCol)

	l.v.SetDefault("padding.margin", d.Padding.Margin)
	l.v.SetDefault("padding.value", d.Padding.Value)

	l.v.SetDefault("image.min_size", d.Image.MinSize)
	l.v.SetDefault("image.max_size", d.Image.MaxSize)

	// Output defaults
	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.point_color", d.Output.PointColor)
	l.v.SetDefault("output.line_color", d.Output.LineColor)
	l.v.SetDefault("output.cross_size", d.Output.CrossSize)
	l.v.SetDefault("output.cross_width", d.Output.CrossWidth)

	// Batch defaults
	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.fail_fast", d.Batch.FailFast)

	// Server defaults
	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.max_points", d.Server.MaxPoints)
	l.v.SetDefault("server.max_rounds", d.Server.MaxRounds)
	l.v.SetDefault("server.rate_limit.enabled", d.Server.RateLimit.Enabled)
	l.v.SetDefault("server.rate_limit.requests_per_minute", d.Server.RateLimit.RequestsPerMinute)
	l.v.SetDefault("server.rate_limit.requests_per_hour", d.Server.RateLimit.RequestsPerHour)
	l.v.SetDefault("server.rate_limit.max_requests_per_day", d.Server.RateLimit.MaxRequestsPerDay)
	l.v.SetDefault("server.rate_limit.max_data_per_day", d.Server.RateLimit.MaxDataPerDay)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	// Current directory
	paths := []string{"."}

	// User's home directory
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	// XDG config directory
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "snake"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "snake"))
	}

	// System-wide configuration
	return append(paths, "/etc/snake")
}
