package snake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainCodeBetween(t *testing.T) {
	from := Position{Row: 5, Col: 5}
	tests := []struct {
		name string
		to   Position
		want ChainCode
	}{
		{"east", Position{Row: 5, Col: 6}, ChainEast},
		{"south east", Position{Row: 6, Col: 6}, ChainSouthEast},
		{"south", Position{Row: 6, Col: 5}, ChainSouth},
		{"south west", Position{Row: 6, Col: 4}, ChainSouthWest},
		{"west", Position{Row: 5, Col: 4}, ChainWest},
		{"north west", Position{Row: 4, Col: 4}, ChainNorthWest},
		{"north", Position{Row: 4, Col: 5}, ChainNorth},
		{"north east", Position{Row: 4, Col: 6}, ChainNorthEast},
		{"same position", from, ChainInvalid},
		{"two away", Position{Row: 7, Col: 7}, ChainInvalid},
		{"knight move", Position{Row: 6, Col: 7}, ChainInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChainCodeBetween(from, tt.to))
		})
	}
}

func TestChainCodeOffsetRoundTrip(t *testing.T) {
	from := Position{Row: 0, Col: 0}
	for code := ChainEast; code <= ChainNorthEast; code++ {
		dCol, dRow := code.Offset()
		assert.Equal(t, code, ChainCodeBetween(from, from.Offset(dRow, dCol)), code.String())
	}

	dCol, dRow := ChainInvalid.Offset()
	assert.Zero(t, dCol)
	assert.Zero(t, dRow)
}

func TestChainCodeString(t *testing.T) {
	assert.Equal(t, "E", ChainEast.String())
	assert.Equal(t, "NE", ChainNorthEast.String())
	assert.Equal(t, "invalid", ChainInvalid.String())
	assert.Equal(t, "ChainCode(9)", ChainCode(9).String())
	assert.False(t, ChainInvalid.Valid())
	assert.True(t, ChainSouth.Valid())
}
