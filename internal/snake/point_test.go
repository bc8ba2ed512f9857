package snake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPointAdjustRequiresEnergies(t *testing.T) {
	p := NewPoint(10, 10)
	_, _, err := p.AdjustPoint()
	require.ErrorIs(t, err, ErrEnergyNotReady)

	p.ResetEnergies()
	require.NoError(t, p.Field().Add(newTerm(func(dRow, dCol int) float64 {
		if dRow == 2 && dCol == -1 {
			return -5
		}
		return 0
	})))
	p.AddEnergies()

	dRow, dCol, err := p.AdjustPoint()
	require.NoError(t, err)
	assert.Equal(t, 2, dRow)
	assert.Equal(t, -1, dCol)
	assert.Equal(t, Position{Row: 12, Col: 9}, p.Position)

	// combined field is consumed by the move
	_, _, err = p.AdjustPoint()
	require.ErrorIs(t, err, ErrEnergyNotReady)
}

func TestPointEnergyPassAddsThreeTerms(t *testing.T) {
	img := mat.NewDense(30, 30, nil)
	p := NewPoint(15, 15)
	snapshot := []Position{{Row: 15, Col: 15}, {Row: 15, Col: 20}, {Row: 20, Col: 15}}

	p.ResetEnergies()
	p.CalcEnergyDistance(snapshot, false)
	p.CalcEnergyDeviation(snapshot[2], snapshot[1])
	clamped, err := p.CalcEnergyGradient(img, false, ClampUpper)
	require.NoError(t, err)
	assert.Zero(t, clamped)
	assert.Equal(t, 3, p.Field().Terms())

	combined := p.AddEnergies()
	rows, cols := combined.Dims()
	assert.Equal(t, FieldSize, rows)
	assert.Equal(t, FieldSize, cols)
	// each term lies in [0, 1]
	assert.LessOrEqual(t, mat.Max(combined), 3.0)
	assert.GreaterOrEqual(t, mat.Min(combined), 0.0)
}

func TestPointGradientOutOfBounds(t *testing.T) {
	img := mat.NewDense(10, 10, nil)

	p := NewPoint(2, 5)
	_, err := p.CalcEnergyGradient(img, false, ClampUpper)
	require.ErrorIs(t, err, ErrOutOfBounds)

	clamped, err := p.CalcEnergyGradient(img, false, ClampBoth)
	require.NoError(t, err)
	assert.Equal(t, FieldSize, clamped)
}

func TestPointChainCodeHistory(t *testing.T) {
	p := NewPoint(5, 5)
	assert.Equal(t, ChainEast, p.CalculateChainCode(Position{Row: 5, Col: 6}))
	assert.Equal(t, ChainInvalid, p.CalculateChainCode(Position{Row: 9, Col: 9}))

	history := p.ChainCodes()
	assert.Equal(t, []ChainCode{ChainEast, ChainInvalid}, history)

	history[0] = ChainNorth
	assert.Equal(t, ChainEast, p.ChainCodes()[0])
}
