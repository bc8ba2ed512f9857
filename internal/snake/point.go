package snake

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Point is one contour vertex together with its energy field and the
// history of chain codes towards its successor.
type Point struct {
	Position

	chain    []ChainCode
	field    *EnergyField
	combined *mat.Dense
}

// NewPoint returns a point at (row, col) with an empty history.
func NewPoint(row, col int) *Point {
	return &Point{
		Position: Position{Row: row, Col: col},
		field:    NewEnergyField(),
	}
}

// ChainCodes returns a copy of the chain-code history, oldest first.
func (p *Point) ChainCodes() []ChainCode {
	out := make([]ChainCode, len(p.chain))
	copy(out, p.chain)
	return out
}

// ResetEnergies clears the accumulated terms and any combined field.
func (p *Point) ResetEnergies() {
	p.field.Reset()
	p.combined = nil
}

// Field returns the point's accumulator.
func (p *Point) Field() *EnergyField { return p.field }

// CalcEnergyDistance adds the distance term computed against snapshot, the
// positions of every contour point including this one.
func (p *Point) CalcEnergyDistance(snapshot []Position, shrink bool) {
	// distanceTerm is always 7x7, Add cannot fail.
	_ = p.field.Add(distanceTerm(p.Position, snapshot, shrink))
}

// CalcEnergyDeviation adds the deviation term for the given neighbours.
func (p *Point) CalcEnergyDeviation(prior, next Position) {
	_ = p.field.Add(deviationTerm(p.Position, prior, next))
}

// CalcEnergyGradient adds the gradient term sampled from img and returns the
// number of clamped candidates.
func (p *Point) CalcEnergyGradient(img mat.Matrix, toLow bool, clamp ClampPolicy) (int, error) {
	term, clamped, err := gradientTerm(p.Position, img, toLow, clamp)
	if err != nil {
		return clamped, err
	}
	return clamped, p.field.Add(term)
}

// AddEnergies combines the accumulated terms into the field used by
// AdjustPoint and returns a copy of it.
func (p *Point) AddEnergies() *mat.Dense {
	p.combined = p.field.Total()
	return mat.DenseCopyOf(p.combined)
}

// AdjustPoint moves the point to the minimum of its combined field and
// returns the applied offset. The combined field is consumed, so a second
// call without a new energy pass fails with ErrEnergyNotReady.
func (p *Point) AdjustPoint() (dRow, dCol int, err error) {
	if p.combined == nil {
		return 0, 0, fmt.Errorf("%w: point %s", ErrEnergyNotReady, p.Position)
	}
	dRow, dCol = argmin(p.combined)
	p.Row += dRow
	p.Col += dCol
	p.combined = nil
	return dRow, dCol, nil
}

// CalculateChainCode appends the direction towards next to the history and
// returns it.
func (p *Point) CalculateChainCode(next Position) ChainCode {
	code := ChainCodeBetween(p.Position, next)
	p.chain = append(p.chain, code)
	return code
}

func (p *Point) ready() bool { return p.combined != nil }
