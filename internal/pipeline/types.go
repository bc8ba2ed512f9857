package pipeline

import "github.com/MeKo-Tech/snake/internal/snake"

// PointResult is one final contour point in image coordinates.
type PointResult struct {
	Row        int               `json:"row" yaml:"row"`
	Col        int               `json:"col" yaml:"col"`
	ChainCodes []snake.ChainCode `json:"chain_codes" yaml:"chain_codes"`
}

// Result is the outcome of segmenting one image.
type Result struct {
	Width          int              `json:"width" yaml:"width"`
	Height         int              `json:"height" yaml:"height"`
	EdgeMethod     string           `json:"edge_method" yaml:"edge_method"`
	Initial        []snake.Position `json:"initial" yaml:"initial"`
	Points         []PointResult    `json:"points" yaml:"points"`
	AverageSpacing float64          `json:"average_spacing" yaml:"average_spacing"`
	Rounds         int              `json:"rounds" yaml:"rounds"`
	Insertions     int              `json:"insertions" yaml:"insertions"`
	Converged      bool             `json:"converged" yaml:"converged"`
	Processing     struct {
		EdgesNs   int64 `json:"edges_ns" yaml:"edges_ns"`
		ContourNs int64 `json:"contour_ns" yaml:"contour_ns"`
		TotalNs   int64 `json:"total_ns" yaml:"total_ns"`
	} `json:"processing" yaml:"processing"`
}

// Positions returns the final point positions in order.
func (r *Result) Positions() []snake.Position {
	out := make([]snake.Position, len(r.Points))
	for i, p := range r.Points {
		out[i] = snake.Position{Row: p.Row, Col: p.Col}
	}
	return out
}
