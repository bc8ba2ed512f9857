package snake

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Position is an integer pixel coordinate.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// String returns "row,col".
func (p Position) String() string {
	return strconv.Itoa(p.Row) + "," + strconv.Itoa(p.Col)
}

// Offset returns p moved by dRow, dCol.
func (p Position) Offset(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// squaredDistance returns the squared Euclidean distance between a and b.
func squaredDistance(a, b Position) int {
	dr := a.Row - b.Row
	dc := a.Col - b.Col
	return dr*dr + dc*dc
}

// distance returns the Euclidean distance between a and b.
func distance(a, b Position) float64 {
	return math.Sqrt(float64(squaredDistance(a, b)))
}

// midpoint returns the floored midpoint of a and b.
func midpoint(a, b Position) Position {
	return Position{Row: floorHalf(a.Row + b.Row), Col: floorHalf(a.Col + b.Col)}
}

func floorHalf(v int) int {
	if v < 0 && v%2 != 0 {
		return v/2 - 1
	}
	return v / 2
}

// ParsePositions parses an initial contour written as "r,c;r,c;...".
// Whitespace around coordinates is ignored.
func ParsePositions(s string) ([]Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty point list", ErrInvalidInput)
	}

	parts := strings.Split(s, ";")
	out := make([]Position, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rc := strings.Split(part, ",")
		if len(rc) != 2 {
			return nil, fmt.Errorf("%w: point %d %q is not row,col", ErrInvalidInput, i, part)
		}
		row, err := strconv.Atoi(strings.TrimSpace(rc[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: point %d row: %v", ErrInvalidInput, i, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(rc[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: point %d col: %v", ErrInvalidInput, i, err)
		}
		out = append(out, Position{Row: row, Col: col})
	}
	return out, nil
}

// Circle returns n points on a circle around center, starting east of the
// centre and advancing towards increasing rows. Coordinates are rounded to
// the nearest pixel.
func Circle(center Position, radius float64, n int) ([]Position, error) {
	if n < MinPoints {
		return nil, fmt.Errorf("%w: circle needs at least %d points, got %d", ErrInvalidInput, MinPoints, n)
	}
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: circle radius must be positive, got %v", ErrInvalidInput, radius)
	}

	pts := make([]Position, n)
	for k := range n {
		angle := 2 * math.Pi * float64(k) / float64(n)
		pts[k] = Position{
			Row: center.Row + int(math.Round(radius*math.Sin(angle))),
			Col: center.Col + int(math.Round(radius*math.Cos(angle))),
		}
	}
	return pts, nil
}
