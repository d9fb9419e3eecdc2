// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// A Rect is a run of dark modules, in modules from the top left corner
// of the canvas, quiet zone included.
type Rect struct {
	X, Y, W, H int
}

// A Vector is a QR code rendered as a vector image.  Coordinates of
// Rects and Path are in modules; a module is Unit pixels on a side.
type Vector struct {
	Width, Height float64 // canvas size in pixels
	Unit          float64 // pixels per module
	Margin        int     // quiet zone width in modules
	Side          int     // modules on a side, quiet zone included
	Rects         []Rect  // dark runs, row by row
	Path          string  // SVG path data covering Rects
	Dark, Light   color.Color
}

// RenderConfigError reports an invalid unit size or margin.
type RenderConfigError struct {
	Unit   float64
	Margin int
}

func (e RenderConfigError) Error() string {
	if e.Margin < 0 {
		return fmt.Sprintf("qr: negative margin %d", e.Margin)
	}
	return fmt.Sprintf("qr: invalid unit size %g", e.Unit)
}

// Render returns a vector image of c with modules of unit pixels and a
// quiet zone of margin modules on each side.  Horizontally adjacent dark
// modules are merged into runs.  Nil colours default to black and
// white.
func (c *Code) Render(unit float64, margin int, dark, light color.Color) (*Vector, error) {
	if !(unit > 0) || math.IsInf(unit, 0) || margin < 0 {
		return nil, RenderConfigError{unit, margin}
	}
	if dark == nil {
		dark = color.Black
	}
	if light == nil {
		light = color.White
	}
	side := c.Size + 2*margin
	v := &Vector{
		Width:  float64(side) * unit,
		Height: float64(side) * unit,
		Unit:   unit,
		Margin: margin,
		Side:   side,
		Dark:   dark,
		Light:  light,
	}
	var path strings.Builder
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; {
			if !c.Black(x, y) {
				x++
				continue
			}
			s := x
			for x < c.Size && c.Black(x, y) {
				x++
			}
			r := Rect{s + margin, y + margin, x - s, 1}
			v.Rects = append(v.Rects, r)
			w := strconv.Itoa(r.W)
			path.WriteString("M" + strconv.Itoa(r.X) + " " +
				strconv.Itoa(r.Y) + "h" + w + "v1h-" + w + "z")
		}
	}
	v.Path = path.String()
	return v, nil
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// fill returns SVG style for filling with c.
func fill(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	s := fmt.Sprintf("fill:#%02x%02x%02x", n.R, n.G, n.B)
	if n.A != 0xff {
		s += ";fill-opacity:" + strconv.FormatFloat(float64(n.A)/0xff, 'g', 3, 64)
	}
	return s
}

// EncodeSVG writes v to w as an SVG document.  The view box is in
// modules, scaled to the canvas size.
func (v *Vector) EncodeSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	s := svg.New(ew)
	px := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	n := strconv.Itoa(v.Side)
	s.Startraw(`width="`+px(v.Width)+`"`, `height="`+px(v.Height)+`"`,
		`viewBox="0 0 `+n+" "+n+`"`)
	s.Rect(0, 0, v.Side, v.Side, fill(v.Light))
	s.Group(`shape-rendering="crispEdges"`)
	if v.Path != "" {
		s.Path(v.Path, fill(v.Dark))
	}
	s.Gend()
	s.End()
	return ew.err
}

// SVG returns v as an SVG document.
func (v *Vector) SVG() string {
	var b strings.Builder
	v.EncodeSVG(&b)
	return b.String()
}
