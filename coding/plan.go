// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"slices"
	"sync"
)

// A Plan describes how to construct a QR code
// with a specific version and level.
type Plan struct {
	Version Version // QR code version
	Level   Level   // QR error correction Level

	DataBits int // number of data bits
	Size     int // number of pixels on a side
	Stride   int // number of bytes per row

	Map  []byte // pixel map: 0 is data or check, 1 is function pattern
	Base []byte // function patterns other than format information
}

// Pre-allocated Plans.  A Plan is created the first time a
// combination of version and level is used and is read-only
// afterwards.
var plans [MaxVersion + 1][H + 1]struct {
	once sync.Once
	p    *Plan
}

// NewPlan returns a Plan for a QR code with the given version and
// level.  The Plan is shared and must not be modified.
func NewPlan(version Version, level Level) (*Plan, error) {
	return makePlan(version, level)
}

// makePlan returns plans[version][level].
// If it doesn't exist, it is created.
func makePlan(version Version, level Level) (*Plan, error) {
	if !version.IsValid() {
		return nil, ErrVersion
	}
	if !level.IsValid() {
		return nil, ErrLevel
	}
	p := &plans[version][level]
	p.once.Do(func() { p.p = vplan(version, level) })
	return p.p, nil
}

func (p *Plan) newBitmap() []byte { return make([]byte, p.Size*p.Stride) }

// IsFunction reports whether the pixel at (x,y) belongs to a function
// pattern or the format or version information.
func (p *Plan) IsFunction(x, y int) bool { return get(p.Map, p.Stride, x, y) }

func get(bm []byte, stride, x, y int) bool {
	return bm[y*stride+x>>3]&(0x80>>(x&7)) != 0
}

func set(bm []byte, stride, x, y int, black bool) {
	b := &bm[y*stride+x>>3]
	if black {
		*b |= 0x80 >> (x & 7)
	} else {
		*b &^= 0x80 >> (x & 7)
	}
}

// fn sets the pixel at (x,y) as a function pattern pixel.
func (p *Plan) fn(x, y int, black bool) {
	set(p.Map, p.Stride, x, y, true)
	set(p.Base, p.Stride, x, y, black)
}

// vplan creates a Plan for the given version.
func vplan(v Version, l Level) *Plan {
	siz := v.Size()
	stride := (siz + 7) >> 3
	p := &Plan{
		Version:  v,
		Level:    l,
		DataBits: v.DataBits(l),
		Size:     siz,
		Stride:   stride,
		Map:      make([]byte, siz*stride),
		Base:     make([]byte, siz*stride),
	}

	// Position boxes with separators.
	for _, c := range [][2]int{{0, 0}, {siz - 7, 0}, {0, siz - 7}} {
		p.positionBox(c[0], c[1])
	}

	// Timing patterns between the position boxes.
	for i := 8; i < siz-8; i++ {
		p.fn(i, 6, i&1 == 0)
		p.fn(6, i, i&1 == 0)
	}

	// Alignment boxes, except where they would overlap position boxes.
	pos := v.alignments()
	for _, y := range pos {
		for _, x := range pos {
			last := pos[len(pos)-1]
			if x == 6 && y == 6 || x == 6 && y == last ||
				x == last && y == 6 {
				continue
			}
			p.alignBox(x, y)
		}
	}

	// Format information, reserved.  Drawn by Apply.
	for i := 0; i < 9; i++ {
		if i != 6 {
			p.fn(8, i, false)
			p.fn(i, 8, false)
		}
	}
	for i := 0; i < 8; i++ {
		p.fn(siz-1-i, 8, false)
		p.fn(8, siz-1-i, false)
	}
	// One lonely black pixel
	p.fn(8, siz-8, true)

	// Version information: 6x3 pixels at (0, siz-11)
	// and 3x6 at (siz-11, 0).
	if v >= 7 {
		vb := versionBits(v)
		for i := 0; i < 18; i++ {
			black := vb>>i&1 != 0
			a, b := siz-11+i%3, i/3
			p.fn(a, b, black)
			p.fn(b, a, black)
		}
	}
	return p
}

// positionBox draws a position box (finder pattern) at upper left x,
// y, including the light separator around it.
func (p *Plan) positionBox(x, y int) {
	for dy := -1; dy <= 7; dy++ {
		for dx := -1; dx <= 7; dx++ {
			xx, yy := x+dx, y+dy
			if xx < 0 || xx >= p.Size || yy < 0 || yy >= p.Size {
				continue
			}
			// Chebyshev distance from the centre:
			// 0-1 core, 2 ring, 3 frame, 4 separator
			d := max(abs(dx-3), abs(dy-3))
			p.fn(xx, yy, d != 2 && d != 4)
		}
	}
}

// alignBox draws an alignment (small) box centred at x, y.
func (p *Plan) alignBox(x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			p.fn(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// alignments returns the coordinates of alignment box centres in each
// dimension, or nil for version 1.
func (v Version) alignments() []int {
	vt := &vtab[v]
	if vt.apos == 0 {
		return nil
	}
	pos := []int{6}
	last := v.Size() - 7
	for x := vt.apos; x <= last; x += vt.astride {
		pos = append(pos, x)
		if vt.astride == 0 {
			break
		}
	}
	return pos
}

// bch returns data followed by the BCH code remainder for the
// generator polynomial gen of degree n.
func bch(data, gen uint32, n int) uint32 {
	rem := data
	for i := 0; i < n; i++ {
		rem = rem<<1 ^ (rem>>(n-1)&1)*gen
	}
	return data<<n | rem&(1<<n-1)
}

// FormatBits returns the 15 bit format information for the level and
// mask: 2 bits of level, 3 bits of mask and 10 bits of BCH code,
// masked with 0x5412.
func FormatBits(l Level, m Mask) uint16 {
	// L=01, M=00, Q=11, H=10
	return uint16(bch(uint32(l^1)<<3|uint32(m), 0x537, 10) ^ 0x5412)
}

// versionBits returns the 18 bit version information: 6 bits of
// version and 12 bits of BCH code.
func versionBits(v Version) uint32 {
	return bch(uint32(v), 0x1f25, 12)
}

// VersionBits returns the 18 bit version information for versions 7
// and up, or 0 for lower versions, which carry none.
func VersionBits(v Version) uint32 {
	if v < 7 || !v.IsValid() {
		return 0
	}
	return versionBits(v)
}

// drawFormat writes the format information for mask m to bitmap.
func (p *Plan) drawFormat(bitmap []byte, m Mask) {
	fb := FormatBits(p.Level, m)
	siz, stride := p.Size, p.Stride
	bit := func(i int) bool { return fb>>i&1 != 0 }
	// Around the upper left position box
	for i := 0; i < 6; i++ {
		set(bitmap, stride, 8, i, bit(i))
	}
	set(bitmap, stride, 8, 7, bit(6))
	set(bitmap, stride, 8, 8, bit(7))
	set(bitmap, stride, 7, 8, bit(8))
	for i := 9; i < 15; i++ {
		set(bitmap, stride, 14-i, 8, bit(i))
	}
	// Split between the other two position boxes
	for i := 0; i < 8; i++ {
		set(bitmap, stride, siz-1-i, 8, bit(i))
	}
	for i := 8; i < 15; i++ {
		set(bitmap, stride, 8, siz-15+i, bit(i))
	}
}

// Serialise writes bits from s to the bitmap in zigzag scan order:
// in column pairs from the right, alternately upwards and downwards,
// skipping the vertical timing pattern and function pixels.
func (p *Plan) Serialise(s BitStream, bitmap []byte) {
	siz, stride := p.Size, p.Stride
	up := true
	for x := siz - 1; x >= 1; x -= 2 {
		if x == 6 { // vertical timing strip
			x = 5
		}
		for i := 0; i < siz; i++ {
			y := i
			if up {
				y = siz - 1 - i
			}
			for _, xx := range [2]int{x, x - 1} {
				if !get(p.Map, stride, xx, y) && s.Next() {
					set(bitmap, stride, xx, y, true)
				}
			}
		}
		up = !up
	}
}

// Apply returns a Code built from the data bitmap: function patterns
// from p, data pixels xored with mask m, and the format information
// for m.  data is not modified.
func (p *Plan) Apply(data []byte, m Mask) *Code {
	siz, stride := p.Size, p.Stride
	bm := slices.Clone(p.Base)
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if !get(p.Map, stride, x, y) &&
				get(data, stride, x, y) != m.Black(x, y) {
				set(bm, stride, x, y, true)
			}
		}
	}
	p.drawFormat(bm, m)
	return &Code{
		Bitmap:  bm,
		Size:    siz,
		Stride:  stride,
		Version: p.Version,
		Level:   p.Level,
		Mask:    m,
	}
}
