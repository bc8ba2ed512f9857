package snake

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	// FieldRadius is the largest offset a point can move per iteration.
	FieldRadius = 3
	// FieldSize is the side length of every energy grid.
	FieldSize = 2*FieldRadius + 1
)

// EnergyField accumulates energy terms for one point. It starts at zero and
// each term is added in place; Reset clears it for the next pass.
type EnergyField struct {
	total *mat.Dense
	terms int
}

// NewEnergyField returns a zeroed 7x7 field.
func NewEnergyField() *EnergyField {
	return &EnergyField{total: mat.NewDense(FieldSize, FieldSize, nil)}
}

// Reset zeroes the field.
func (f *EnergyField) Reset() {
	f.total.Zero()
	f.terms = 0
}

// Add adds term element-wise. The term must be 7x7.
func (f *EnergyField) Add(term mat.Matrix) error {
	if term == nil {
		return fmt.Errorf("%w: nil energy term", ErrInvalidInput)
	}
	r, c := term.Dims()
	if r != FieldSize || c != FieldSize {
		return fmt.Errorf("%w: energy term is %dx%d, want %dx%d", ErrInvalidInput, r, c, FieldSize, FieldSize)
	}
	f.total.Add(f.total, term)
	f.terms++
	return nil
}

// Terms returns how many terms were added since the last Reset.
func (f *EnergyField) Terms() int { return f.terms }

// Total returns a copy of the accumulated grid.
func (f *EnergyField) Total() *mat.Dense {
	return mat.DenseCopyOf(f.total)
}

// Argmin returns the offset of the smallest value. Ties go to the first
// minimum in row-major order.
func (f *EnergyField) Argmin() (dRow, dCol int) {
	return argmin(f.total)
}

func argmin(m mat.Matrix) (dRow, dCol int) {
	best := 0
	bestVal := m.At(0, 0)
	for idx := 1; idx < FieldSize*FieldSize; idx++ {
		if v := m.At(idx/FieldSize, idx%FieldSize); v < bestVal {
			best, bestVal = idx, v
		}
	}
	return best/FieldSize - FieldRadius, best%FieldSize - FieldRadius
}

// Normalize scales m so that its maximum becomes 1. A matrix whose maximum
// is zero is returned unchanged. The input is never modified.
func Normalize(m *mat.Dense) *mat.Dense {
	maximum := mat.Max(m)
	if maximum == 0 {
		return m
	}
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, _ int, v float64) float64 { return v / maximum }, out)
	return out
}

// complement returns 1 - m.
func complement(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, _ int, v float64) float64 { return 1.0 - v }, out)
	return out
}

// newTerm fills a 7x7 grid by evaluating fn for every candidate offset.
func newTerm(fn func(dRow, dCol int) float64) *mat.Dense {
	term := mat.NewDense(FieldSize, FieldSize, nil)
	for i := -FieldRadius; i <= FieldRadius; i++ {
		for j := -FieldRadius; j <= FieldRadius; j++ {
			term.Set(i+FieldRadius, j+FieldRadius, fn(i, j))
		}
	}
	return term
}

// distanceTerm is the normalized sum of squared distances from every
// candidate to every contour point. Unless shrink is set, the complement is
// returned so that positions far from the contour are preferred.
func distanceTerm(at Position, snapshot []Position, shrink bool) *mat.Dense {
	raw := newTerm(func(dRow, dCol int) float64 {
		candidate := at.Offset(dRow, dCol)
		sum := 0
		for _, p := range snapshot {
			sum += squaredDistance(candidate, p)
		}
		return float64(sum)
	})

	norm := Normalize(raw)
	if shrink {
		return norm
	}
	return complement(norm)
}

// deviationTerm penalizes candidates whose squared distances to the two
// cyclic neighbours differ.
func deviationTerm(at, prior, next Position) *mat.Dense {
	raw := newTerm(func(dRow, dCol int) float64 {
		candidate := at.Offset(dRow, dCol)
		diff := squaredDistance(candidate, next) - squaredDistance(candidate, prior)
		return float64(diff) * float64(diff)
	})
	return Normalize(raw)
}

// gradientTerm samples squared intensities around at. It returns the term
// and the number of candidates whose coordinates were clamped.
func gradientTerm(at Position, img mat.Matrix, toLow bool, clamp ClampPolicy) (*mat.Dense, int, error) {
	rows, cols := img.Dims()
	clamped := 0
	raw := mat.NewDense(FieldSize, FieldSize, nil)

	for i := -FieldRadius; i <= FieldRadius; i++ {
		for j := -FieldRadius; j <= FieldRadius; j++ {
			r, c, changed, err := clamp.apply(at.Row+i, at.Col+j, rows, cols)
			if err != nil {
				return nil, clamped, err
			}
			if changed {
				clamped++
			}
			v := img.At(r, c)
			raw.Set(i+FieldRadius, j+FieldRadius, v*v)
		}
	}

	norm := Normalize(raw)
	if toLow {
		return norm, clamped, nil
	}
	return complement(norm), clamped, nil
}
