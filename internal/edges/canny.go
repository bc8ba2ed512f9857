package edges

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// canny runs Sobel gradients, non-maximum suppression and hysteresis on an
// already blurred intensity matrix. The result holds 0 or 255.
func canny(src *mat.Dense, low, high float64) *mat.Dense {
	rows, cols := src.Dims()
	magnitude := mat.NewDense(rows, cols, nil)
	direction := mat.NewDense(rows, cols, nil)

	for y := range rows {
		for x := range cols {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := src.At(clamp(y+ky, 0, rows-1), clamp(x+kx, 0, cols-1))
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude.Set(y, x, math.Hypot(gx, gy))
			direction.Set(y, x, math.Atan2(gy, gx))
		}
	}

	thin := suppress(magnitude, direction)
	return hysteresis(thin, low, high)
}

// suppress keeps only pixels that are local maxima along their gradient
// direction. Border pixels are dropped.
func suppress(magnitude, direction *mat.Dense) *mat.Dense {
	rows, cols := magnitude.Dims()
	out := mat.NewDense(rows, cols, nil)

	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			mag := magnitude.At(y, x)
			if mag == 0 {
				continue
			}
			angle := direction.At(y, x)
			if angle < 0 {
				angle += math.Pi
			}

			var n1, n2 float64
			switch {
			case angle < math.Pi/8 || angle >= 7*math.Pi/8:
				n1, n2 = magnitude.At(y, x-1), magnitude.At(y, x+1)
			case angle < 3*math.Pi/8:
				// rows grow downwards, so a positive angle points south east
				n1, n2 = magnitude.At(y-1, x-1), magnitude.At(y+1, x+1)
			case angle < 5*math.Pi/8:
				n1, n2 = magnitude.At(y-1, x), magnitude.At(y+1, x)
			default:
				n1, n2 = magnitude.At(y-1, x+1), magnitude.At(y+1, x-1)
			}

			if mag >= n1 && mag >= n2 {
				out.Set(y, x, mag)
			}
		}
	}
	return out
}

// hysteresis keeps strong pixels and every weak pixel 8-connected to one.
func hysteresis(thin *mat.Dense, low, high float64) *mat.Dense {
	rows, cols := thin.Dims()
	out := mat.NewDense(rows, cols, nil)

	type pixel struct{ y, x int }
	var queue []pixel
	for y := range rows {
		for x := range cols {
			if thin.At(y, x) >= high && thin.At(y, x) > 0 {
				out.Set(y, x, 255)
				queue = append(queue, pixel{y, x})
			}
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				ny, nx := p.y+dy, p.x+dx
				if ny < 0 || ny >= rows || nx < 0 || nx >= cols {
					continue
				}
				if out.At(ny, nx) != 0 {
					continue
				}
				if v := thin.At(ny, nx); v >= low && v > 0 {
					out.Set(ny, nx, 255)
					queue = append(queue, pixel{ny, nx})
				}
			}
		}
	}
	return out
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
