package testutil

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/stretchr/testify/require"
)

// SquareOutline returns a size x size black image with a one pixel white
// square outline on rows and columns lo and hi.
func SquareOutline(size, lo, hi int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for k := lo; k <= hi; k++ {
		img.SetGray(k, lo, color.Gray{Y: 255})
		img.SetGray(k, hi, color.Gray{Y: 255})
		img.SetGray(lo, k, color.Gray{Y: 255})
		img.SetGray(hi, k, color.Gray{Y: 255})
	}
	return img
}

// FilledDisc returns a black image with a white disc of the given radius
// around (row, col).
func FilledDisc(width, height, row, col int, radius float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if math.Hypot(float64(y-row), float64(x-col)) <= radius {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// Noise returns a reproducible random grayscale image.
func Noise(width, height int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// Octagon returns eight positions on a circle of radius r around centre,
// starting east and turning clockwise in image coordinates.
func Octagon(center snake.Position, r int) []snake.Position {
	d := int(math.Round(float64(r) / math.Sqrt2))
	return []snake.Position{
		{Row: center.Row, Col: center.Col + r},
		{Row: center.Row + d, Col: center.Col + d},
		{Row: center.Row + r, Col: center.Col},
		{Row: center.Row + d, Col: center.Col - d},
		{Row: center.Row, Col: center.Col - r},
		{Row: center.Row - d, Col: center.Col - d},
		{Row: center.Row - r, Col: center.Col},
		{Row: center.Row - d, Col: center.Col + d},
	}
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path) //nolint:gosec // G304: test file creation with controlled path
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// SaveImage saves an image to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, WritePNG(path, img), "Failed to write PNG %s", path)
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}
