// Package edges turns input images into the intensity matrices the contour
// settles on.
package edges

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// Edge detection methods.
const (
	MethodCanny = "canny"
	MethodSobel = "sobel"
	MethodNone  = "none"
)

// ErrNilImage is returned when Detect or ToMatrix receive no image.
var ErrNilImage = errors.New("edges: nil image")

// Config selects and tunes the edge detector.
type Config struct {
	Method string  `mapstructure:"method" yaml:"method" json:"method"`
	Low    float64 `mapstructure:"low" yaml:"low" json:"low"`
	High   float64 `mapstructure:"high" yaml:"high" json:"high"`
	Sigma  float64 `mapstructure:"sigma" yaml:"sigma" json:"sigma"`
}

// DefaultConfig returns Canny with thresholds 30/150 and a 1.4 blur.
func DefaultConfig() Config {
	return Config{
		Method: MethodCanny,
		Low:    30,
		High:   150,
		Sigma:  1.4,
	}
}

// Validate checks the method name and thresholds.
func (c Config) Validate() error {
	switch strings.ToLower(c.Method) {
	case MethodCanny:
		if c.Low < 0 || c.High < 0 {
			return fmt.Errorf("edges: thresholds must be non-negative, got low=%v high=%v", c.Low, c.High)
		}
		if c.Low > c.High {
			return fmt.Errorf("edges: low threshold %v exceeds high threshold %v", c.Low, c.High)
		}
		if c.Sigma < 0 {
			return fmt.Errorf("edges: sigma must be non-negative, got %v", c.Sigma)
		}
	case MethodSobel, MethodNone:
	default:
		return fmt.Errorf("edges: unknown method %q (must be canny, sobel or none)", c.Method)
	}
	return nil
}

// Detect runs the configured method and returns a rows x cols intensity
// matrix in 0..255.
func Detect(img image.Image, cfg Config) (*mat.Dense, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("edges: empty image %dx%d", b.Dx(), b.Dy())
	}

	switch strings.ToLower(cfg.Method) {
	case MethodSobel:
		var out image.Image = effect.Sobel(img)
		return ToMatrix(out)
	case MethodNone:
		return ToMatrix(img)
	default:
		gray := imaging.Grayscale(img)
		if cfg.Sigma > 0 {
			gray = imaging.Blur(gray, cfg.Sigma)
		}
		m, err := ToMatrix(gray)
		if err != nil {
			return nil, err
		}
		return canny(m, cfg.Low, cfg.High), nil
	}
}

// ToMatrix converts img to its grayscale intensities. Row r, column c holds
// the pixel at (Min.X+c, Min.Y+r).
func ToMatrix(img image.Image) (*mat.Dense, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("edges: empty image %dx%d", b.Dx(), b.Dy())
	}

	m := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			m.Set(y-b.Min.Y, x-b.Min.X, float64(g.Y))
		}
	}
	return m, nil
}
