package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const octagonPoints = "25,31;29,29;31,25;29,21;25,19;21,21;19,25;21,29"

func outlineFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outline.png")
	testutil.SaveImage(t, testutil.SquareOutline(50, 10, 39), path)
	return path
}

func TestSegmentCommand(t *testing.T) {
	assert.Equal(t, "segment <image>", segmentCmd.Use)
	assert.Same(t, segmentCmd, GetSegmentCommand())
	for _, name := range []string{"rounds", "insert-threshold", "max-points", "shrink", "to-low", "clamp",
		"edge-method", "points", "radius", "init-points", "pad", "format", "output", "overlay"} {
		assert.NotNil(t, segmentCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestSegmentCommand_JSON(t *testing.T) {
	out, _, err := runCLI(t, "segment", outlineFile(t),
		"--edge-method", "none", "--points", octagonPoints, "--rounds", "4", "--format", "json")
	require.NoError(t, err)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []snake.Position{
		{Row: 25, Col: 39}, {Row: 39, Col: 39}, {Row: 39, Col: 25}, {Row: 39, Col: 10},
		{Row: 25, Col: 10}, {Row: 10, Col: 10}, {Row: 10, Col: 25}, {Row: 10, Col: 39},
	}, res.Positions())
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, "none", res.EdgeMethod)
}

func TestSegmentCommand_OutputFiles(t *testing.T) {
	dir := t.TempDir()
	resultPath := filepath.Join(dir, "result.yaml")
	overlayPath := filepath.Join(dir, "overlay.png")

	out, _, err := runCLI(t, "segment", outlineFile(t),
		"--edge-method", "none", "--points", octagonPoints, "--rounds", "2",
		"--format", "yaml", "--output", resultPath, "--overlay", overlayPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	var res pipeline.Result
	require.NoError(t, yaml.Unmarshal(data, &res))
	assert.Len(t, res.Points, 8)
	assert.Equal(t, 2, res.Rounds)

	overlay := testutil.LoadImage(t, overlayPath)
	assert.Equal(t, 50, overlay.Bounds().Dx())
}

func TestSegmentCommand_TextAndProgress(t *testing.T) {
	out, errOut, err := runCLI(t, "segment", outlineFile(t), "--rounds", "3", "--progress")
	require.NoError(t, err)
	assert.Contains(t, out, "image 50x50, edges=canny")
	assert.Contains(t, out, "rounds=3")
	assert.Contains(t, errOut, "16 points, 3 rounds")
	assert.Contains(t, errOut, "Completed in")
}

func TestSegmentCommand_Errors(t *testing.T) {
	img := outlineFile(t)

	tests := []struct {
		name   string
		args   []string
		substr string
	}{
		{"no args", []string{"segment"}, "accepts 1 arg"},
		{"missing image", []string{"segment", filepath.Join(t.TempDir(), "nope.png")}, ""},
		{"unsupported format", []string{"segment", filepath.Join(t.TempDir(), "x.gif")}, "unsupported image format"},
		{"bad clamp", []string{"segment", img, "--clamp", "middle"}, "pipeline settings"},
		{"bad format", []string{"segment", img, "--format", "csv"}, "invalid output format"},
		{"bad points", []string{"segment", img, "--points", "1,2;3"}, "invalid input"},
		{"too few points", []string{"segment", img, "--points", "1,2;3,4"}, "at least 3"},
		{"out of bounds", []string{"segment", img, "--edge-method", "none", "--clamp", "upper",
			"--points", "1,1;1,5;5,1"}, "--clamp both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}
