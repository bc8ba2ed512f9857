package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/mat"
)

// PadMatrix returns m surrounded by margin rows and columns of fill on
// every side.
func PadMatrix(m mat.Matrix, margin int, fill float64) (*mat.Dense, error) {
	if m == nil {
		return nil, &ImageProcessingError{Operation: "pad", Err: errors.New("input matrix is nil")}
	}
	if margin < 0 {
		return nil, &ImageProcessingError{Operation: "pad", Err: fmt.Errorf("invalid margin %d", margin)}
	}

	rows, cols := m.Dims()
	out := mat.NewDense(rows+2*margin, cols+2*margin, nil)
	if fill != 0 {
		r, c := out.Dims()
		for i := range r {
			for j := range c {
				out.Set(i, j, fill)
			}
		}
	}
	out.Slice(margin, margin+rows, margin, margin+cols).(*mat.Dense).Copy(m)
	return out, nil
}

// MatrixToGray renders an intensity matrix as a grayscale image, clamping
// values to 0..255.
func MatrixToGray(m mat.Matrix) *image.Gray {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for r := range rows {
		for c := range cols {
			v := m.At(r, c)
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			img.SetGray(c, r, color.Gray{Y: uint8(v + 0.5)})
		}
	}
	return img
}
