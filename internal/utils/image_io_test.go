package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestIsSupportedImage(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"a.jpg", true},
		{"b.JPEG", true},
		{"c.png", true},
		{"d.bmp", true},
		{"e.tiff", false},
		{"f.gif", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, IsSupportedImage(c.path), c.path)
	}
}

func solid(w, h int, col color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, col)
		}
	}
	return img
}

func TestLoadImageAndMetadata(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "test.png")
	require.NoError(t, SavePNG(p, solid(10, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})))

	img, meta, err := LoadImage(p)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 10, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, p, meta.Path)
	assert.Positive(t, meta.SizeBytes)
}

func TestLoadImageBMP(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.bmp")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, solid(8, 6, color.White)))
	require.NoError(t, f.Close())

	_, meta, err := LoadImage(p)
	require.NoError(t, err)
	assert.Equal(t, "bmp", meta.Format)
	assert.Equal(t, 8, meta.Width)
}

func TestLoadImageErrors(t *testing.T) {
	var ipe *ImageProcessingError

	_, _, err := LoadImage("")
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, "load", ipe.Operation)

	_, _, err = LoadImage("picture.tiff")
	require.ErrorAs(t, err, &ipe)

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o600))
	_, _, err = LoadImage(bad)
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(3, 4, color.Black)))

	img, meta, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 4), img.Bounds())
	assert.Equal(t, "png", meta.Format)
}

func TestSavePNGNil(t *testing.T) {
	require.Error(t, SavePNG(filepath.Join(t.TempDir(), "x.png"), nil))
}

func TestValidateImageConstraints(t *testing.T) {
	cons := ImageConstraints{MinWidth: 7, MinHeight: 7, MaxWidth: 100, MaxHeight: 100}

	assert.NoError(t, ValidateImageConstraints(image.NewRGBA(image.Rect(0, 0, 64, 64)), cons))
	assert.Error(t, ValidateImageConstraints(image.NewRGBA(image.Rect(0, 0, 6, 64)), cons))
	assert.Error(t, ValidateImageConstraints(image.NewRGBA(image.Rect(0, 0, 64, 101)), cons))
	assert.Error(t, ValidateImageConstraints(nil, cons))

	unbounded := ImageConstraints{MinWidth: 1, MinHeight: 1}
	assert.NoError(t, ValidateImageConstraints(image.NewRGBA(image.Rect(0, 0, 5000, 5000)), unbounded))
}
