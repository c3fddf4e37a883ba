// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package charts

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Renderer produces a PNG image from labeled series.
type Renderer interface {
	Render(title string, series []Series) ([]byte, error)
}

// palette cycles across series. Colors are distinguishable on the white
// background without anti-aliasing.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// LineRenderer draws series as polylines on a fixed-size canvas with a
// plain axis frame. It has no text rendering; labels travel in the insight
// payload alongside the image URL.
type LineRenderer struct {
	Width  int
	Height int
	Margin int
}

// NewLineRenderer returns a renderer with the default 800x480 canvas.
func NewLineRenderer() *LineRenderer {
	return &LineRenderer{Width: 800, Height: 480, Margin: 40}
}

// Render draws every series over a shared value range and encodes the
// canvas as PNG.
func (r *LineRenderer) Render(_ string, series []Series) ([]byte, error) {
	minX, maxX, minY, maxY, points := bounds(series)
	if points == 0 {
		return nil, errors.New("no points to render")
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	fill(img, color.White)
	r.frame(img)

	plotW := float64(r.Width - 2*r.Margin)
	plotH := float64(r.Height - 2*r.Margin)
	toPixel := func(p Point) (int, int) {
		x := r.Margin + int(plotW*(p.X-minX)/(maxX-minX))
		y := r.Height - r.Margin - int(plotH*(p.Y-minY)/(maxY-minY))
		return x, y
	}

	for i, s := range series {
		c := palette[i%len(palette)]
		for j := 1; j < len(s.Points); j++ {
			x0, y0 := toPixel(s.Points[j-1])
			x1, y1 := toPixel(s.Points[j])
			drawLine(img, x0, y0, x1, y1, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bounds(series []Series) (minX, maxX, minY, maxY float64, points int) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			points++
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return minX, maxX, minY, maxY, points
}

func fill(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// frame draws the left and bottom axis lines.
func (r *LineRenderer) frame(img *image.RGBA) {
	axis := color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	drawLine(img, r.Margin, r.Margin, r.Margin, r.Height-r.Margin, axis)
	drawLine(img, r.Margin, r.Height-r.Margin, r.Width-r.Margin, r.Height-r.Margin, axis)
}

// drawLine is Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
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

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
