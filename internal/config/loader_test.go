package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Equal(t, "both", cfg.Contour.Clamp)
	assert.Equal(t, 10, cfg.Contour.Rounds)
	assert.Equal(t, "canny", cfg.Edges.Method)
}

func TestLoader_FileValues(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
edges:
  method: sobel
contour:
  rounds: 25
  insert_threshold: 6.5
  shrink: true
  clamp: upper
padding:
  margin: 3
server:
  port: 9090
  max_rounds: 200
  rate_limit:
    enabled: true
    requests_per_hour: 30
`)
	l := NewLoaderWithViper(viper.New())
	cfg, err := l.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sobel", cfg.Edges.Method)
	assert.InDelta(t, 30.0, cfg.Edges.Low, 0)
	assert.Equal(t, 25, cfg.Contour.Rounds)
	assert.InDelta(t, 6.5, cfg.Contour.InsertThreshold, 1e-9)
	assert.True(t, cfg.Contour.Shrink)
	assert.Equal(t, "upper", cfg.Contour.Clamp)
	assert.Equal(t, 16, cfg.Contour.InitPoints)
	assert.Equal(t, 3, cfg.Padding.Margin)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 200, cfg.Server.MaxRounds)
	assert.Equal(t, 4096, cfg.Server.MaxPoints)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.Server.RateLimit.RequestsPerHour)
	assert.Equal(t, 60, cfg.Server.RateLimit.RequestsPerMinute)
	assert.Equal(t, path, l.GetConfigFileUsed())
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("SNAKE_CONTOUR_ROUNDS", "3")
	t.Setenv("SNAKE_SERVER_PORT", "7070")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(writeConfig(t, "contour:\n  rounds: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Contour.Rounds)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoaderWithViper(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := NewLoaderWithViper(viper.New()).LoadWithFile(writeConfig(t, "contour: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, "contour:\n  clamp: sideways\n")
		_, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")

		cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(path)
		require.NoError(t, err)
		assert.Equal(t, "sideways", cfg.Contour.Clamp)
	})
}

func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join(xdg, "snake"))
	assert.Equal(t, "/etc/snake", paths[len(paths)-1])
}
