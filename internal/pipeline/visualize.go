package pipeline

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/snake/internal/utils"
)

// Style controls how RenderOverlay draws a contour.
type Style struct {
	PointColor  color.Color
	LineColor   color.Color
	CrossSize   int
	CrossWidth  int
	LineWidth   int
	DrawOutline bool
	DrawInitial bool
	InitColor   color.Color
}

// DefaultStyle draws red crosses joined by a green outline.
func DefaultStyle() Style {
	return Style{
		PointColor:  color.RGBA{R: 255, A: 255},
		LineColor:   color.RGBA{G: 200, A: 255},
		CrossSize:   utils.DefaultCrossSize,
		CrossWidth:  utils.DefaultCrossWidth,
		LineWidth:   1,
		DrawOutline: true,
		InitColor:   color.RGBA{B: 255, A: 255},
	}
}

// RenderOverlay draws the contour over the image and returns an RGBA copy.
func RenderOverlay(img image.Image, res *Result, style Style) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	// copy background
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	if res == nil {
		return dst
	}

	if style.DrawInitial && len(res.Initial) >= 2 {
		pts := make([]image.Point, len(res.Initial))
		for i, p := range res.Initial {
			pts[i] = image.Pt(p.Col, p.Row)
		}
		utils.DrawPolygon(dst, pts, style.InitColor, style.LineWidth)
	}

	pts := make([]image.Point, len(res.Points))
	for i, p := range res.Points {
		pts[i] = image.Pt(p.Col, p.Row)
	}
	if style.DrawOutline {
		utils.DrawPolygon(dst, pts, style.LineColor, style.LineWidth)
	}
	for _, p := range pts {
		utils.DrawCross(dst, p, style.PointColor, style.CrossSize, style.CrossWidth)
	}
	return dst
}
