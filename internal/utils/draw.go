package utils

import (
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Cross marker defaults: bar length and bar width in pixels. Even values grow
// by one so the bars stay centred.
const (
	DefaultCrossSize  = 15
	DefaultCrossWidth = 4
)

// DrawLine draws a line between a and b using a simple Bresenham variant.
func DrawLine(dst *image.RGBA, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCross draws a plus-shaped marker centred on p: a vertical and a
// horizontal bar, each spanning size/2 pixels either side of p and width/2
// pixels across.
func DrawCross(dst *image.RGBA, p image.Point, col color.Color, size, width int) {
	if size < 1 {
		size = DefaultCrossSize
	}
	if width < 1 {
		width = 1
	}
	long, short := size/2, width/2
	fillRect(dst, image.Rect(p.X-short, p.Y-long, p.X+short+1, p.Y+long+1), col)
	fillRect(dst, image.Rect(p.X-long, p.Y-short, p.X+long+1, p.Y+short+1), col)
}

func fillRect(dst *image.RGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Set(x, y, col)
		}
	}
}

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst *image.RGBA, pts []image.Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	for i := range pts {
		DrawLine(dst, pts[i], pts[(i+1)%len(pts)], col, thickness)
	}
}

func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional). Empty or
// malformed input returns fallback.
func ParseHexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
