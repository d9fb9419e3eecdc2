// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// context draws v on a new canvas of the rounded up canvas size.
func (v *Vector) context() *gg.Context {
	dc := gg.NewContext(int(math.Ceil(v.Width)), int(math.Ceil(v.Height)))
	dc.SetColor(v.Light)
	dc.Clear()
	dc.Scale(v.Unit, v.Unit)
	for _, r := range v.Rects {
		dc.DrawRectangle(float64(r.X), float64(r.Y),
			float64(r.W), float64(r.H))
	}
	dc.SetColor(v.Dark)
	dc.Fill()
	return dc
}

// Rasterize returns v drawn on an RGBA canvas.
func (v *Vector) Rasterize() image.Image {
	return v.context().Image()
}

// RGBA returns the pixels of the rasterized image, 4 bytes per pixel
// in row-major order, and its size.
func (v *Vector) RGBA() (pix []byte, width, height int) {
	im := v.context().Image()
	b := im.Bounds()
	if rgba, ok := im.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() {
		return rgba.Pix, b.Dx(), b.Dy()
	}
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, im.At(x, y))
		}
	}
	return rgba.Pix, b.Dx(), b.Dy()
}

// EncodePNG writes the rasterized image to w in PNG format.
func (v *Vector) EncodePNG(w io.Writer) error {
	return v.context().EncodePNG(w)
}
