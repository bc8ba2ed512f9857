package snake

import "strconv"

// ChainCode is a Freeman direction from one point to the next.
type ChainCode int8

// Directions follow image coordinates: rows grow downwards.
const (
	ChainInvalid   ChainCode = -1
	ChainEast      ChainCode = 0
	ChainSouthEast ChainCode = 1
	ChainSouth     ChainCode = 2
	ChainSouthWest ChainCode = 3
	ChainWest      ChainCode = 4
	ChainNorthWest ChainCode = 5
	ChainNorth     ChainCode = 6
	ChainNorthEast ChainCode = 7
)

// 8-neighborhood clockwise order: E, SE, S, SW, W, NW, N, NE.
var (
	chainDCol = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	chainDRow = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

var chainNames = [8]string{"E", "SE", "S", "SW", "W", "NW", "N", "NE"}

// String returns the compass abbreviation, or "invalid".
func (c ChainCode) String() string {
	if c.Valid() {
		return chainNames[c]
	}
	if c == ChainInvalid {
		return "invalid"
	}
	return "ChainCode(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is one of the eight directions.
func (c ChainCode) Valid() bool {
	return c >= ChainEast && c <= ChainNorthEast
}

// Offset returns the column and row step of c. Invalid codes return 0, 0.
func (c ChainCode) Offset() (dCol, dRow int) {
	if !c.Valid() {
		return 0, 0
	}
	return chainDCol[c], chainDRow[c]
}

// ChainCodeBetween returns the direction from one position to an adjacent
// one. Non-adjacent or identical positions yield ChainInvalid.
func ChainCodeBetween(from, to Position) ChainCode {
	dx := to.Col - from.Col
	dy := to.Row - from.Row
	for i := range 8 {
		if chainDCol[i] == dx && chainDRow[i] == dy {
			return ChainCode(i)
		}
	}
	return ChainInvalid
}
