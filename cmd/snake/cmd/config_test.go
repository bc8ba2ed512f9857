package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/snake/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.yaml")

	out, _, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written config.Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, config.DefaultConfig().Server, written.Server)
	assert.Equal(t, "both", written.Contour.Clamp)

	_, _, err = runCLI(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, "config", "init", path, "--force")
	require.NoError(t, err)

	out, _, err = runCLI(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "contour:")
	assert.Contains(t, out, "rounds: 10")
}

func TestConfigPath(t *testing.T) {
	out, _, err := runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration search paths:")
	assert.Contains(t, out, "/etc/snake")
	assert.Contains(t, out, "SNAKE_")
}

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{"host", "port", "cors-origin", "max-upload-size", "timeout", "shutdown-timeout",
		"max-points", "max-rounds", "rate-limit-enabled", "requests-per-minute", "requests-per-hour",
		"max-requests-per-day", "max-data-per-day",
	} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestServeCommand_InvalidPort(t *testing.T) {
	_, _, err := runCLI(t, "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestServeCommand_InvalidLimits(t *testing.T) {
	_, _, err := runCLI(t, "serve", "--max-rounds", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server limits")

	_, _, err = runCLI(t, "serve", "--rate-limit-enabled", "--requests-per-minute=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rate limit")
}
