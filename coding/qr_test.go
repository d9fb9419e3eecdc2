// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsWrite(t *testing.T) {
	var b Bits
	b.Write(1, 1)
	b.Write(0b0101, 4)
	b.Write(0xff, 3)
	assert.Equal(t, 8, b.Bits())
	assert.Equal(t, []byte{0xaf}, b.Bytes())
	b.Write(0x123, 12)
	assert.Equal(t, []byte{0xaf, 0x12, 0x30}, b.b)
	assert.Panics(t, func() { b.Bytes() })
}

func TestSegmentEncode(t *testing.T) {
	for _, tt := range []struct {
		seg  Segment
		want []byte
	}{
		{Segment{"01234567", Numeric}, []byte{0x10, 0x20, 0x0c, 0x56, 0x61, 0x80}},
		{Segment{"HELLO WORLD", Alphanumeric}, []byte{
			0x20, 0x5b, 0x0b, 0x78, 0xd1, 0x72, 0xdc, 0x4d, 0x43, 0x40,
		}},
		{Segment{"é", Latin1}, []byte{0x40, 0x1e, 0x90}},
		{Segment{"é", Byte}, []byte{0x40, 0x2c, 0x3a, 0x90}},
	} {
		var b Bits
		require.NoError(t, tt.seg.Encode(&b, Class0))
		b.Write(0, -b.Bits()&7)
		assert.Equal(t, tt.want, b.Bytes(), "%v", tt.seg)
	}
}

func TestSegmentInvalid(t *testing.T) {
	for _, seg := range []Segment{
		{"12A", Numeric},
		{"abc", Alphanumeric},
		{"€", Latin1},
	} {
		var b Bits
		err := seg.Encode(&b, Class0)
		assert.Equal(t, InvalidCharacterError(seg), err)
		assert.False(t, seg.IsValid())
	}
	var b Bits
	assert.ErrorIs(t, Segment{"x", Modes}.Encode(&b, Class0), ErrMode)
	assert.EqualError(t, InvalidCharacterError{"12A", Numeric},
		"qr: non-numeric string `12A`")
}

func TestModeLength(t *testing.T) {
	// count field widths per size class
	for _, tt := range []struct {
		mode  Mode
		count [Classes]int
	}{
		{Numeric, [Classes]int{10, 12, 14}},
		{Alphanumeric, [Classes]int{9, 11, 13}},
		{Byte, [Classes]int{8, 16, 16}},
		{Latin1, [Classes]int{8, 16, 16}},
	} {
		for class := Class0; class < Classes; class++ {
			assert.Equal(t, 4+tt.count[class], tt.mode.Length(0, 0, class),
				"%s class %d", tt.mode, class)
		}
	}
	assert.Equal(t, 4+10+4, Numeric.Length(1, 1, Class0))
	assert.Equal(t, 4+10+7, Numeric.Length(2, 2, Class0))
	assert.Equal(t, 4+9+6, Alphanumeric.Length(1, 1, Class0))
	assert.Equal(t, 4+9+11, Alphanumeric.Length(2, 2, Class0))
	assert.Equal(t, 4+8+16, Latin1.Length(3, 2, Class0))
	assert.Equal(t, 0, Modes.Length(1, 1, Class0))
}

func TestAddCheckBytes(t *testing.T) {
	b := NewBits(1)
	require.NoError(t, Segment{"HELLO WORLD", Alphanumeric}.Encode(b, Class0))
	b.AddCheckBytes(1, M)
	assert.Equal(t, []byte{
		32, 91, 11, 120, 209, 114, 220, 77, 67, 64, 236, 17, 236, 17, 236, 17,
		196, 35, 39, 119, 235, 215, 231, 226, 93, 23,
	}, b.Bytes())
}

func TestInterleave(t *testing.T) {
	src := make([]byte, 62)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, len(src))
	// 5-Q: two blocks of 15 bytes, then two of 16
	interleave(dst, src, 4)
	assert.Equal(t, []byte{0, 15, 30, 46, 1, 16, 31, 47}, dst[:8])
	assert.Equal(t, []byte{14, 29, 44, 60, 45, 61}, dst[56:])
}

func TestTables(t *testing.T) {
	for v := MinVersion; v <= MaxVersion; v++ {
		// raw data modules, less function patterns
		raw := (16*int(v)+128)*int(v) + 64
		if v >= 2 {
			na := int(v)/7 + 2
			raw -= (25*na-10)*na - 55
			if v >= 7 {
				raw -= 36
			}
		}
		assert.Equal(t, raw/8, v.TotalBytes(), "version %d", v)

		for l := L; l <= H; l++ {
			p, err := NewPlan(v, l)
			require.NoError(t, err)
			n := 0
			for y := 0; y < p.Size; y++ {
				for x := 0; x < p.Size; x++ {
					if !p.IsFunction(x, y) {
						n++
					}
				}
			}
			require.Equal(t, raw, n, "version %d", v)

			nblock, check := v.Blocks(l)
			assert.LessOrEqual(t, check, 30)
			nd := v.dataBytes(l)
			assert.Equal(t, v.TotalBytes(), nd+nblock*check)
			assert.GreaterOrEqual(t, nd/nblock, 1)
		}
	}
	// sanity for capacity boundaries
	assert.Equal(t, 2956*8, MaxVersion.DataBits(L))
	assert.Equal(t, 1276*8, MaxVersion.DataBits(H))
	assert.Equal(t, 16*8, Version(1).DataBits(M))
}

func TestFormatBits(t *testing.T) {
	assert.Equal(t, uint16(0x77c4), FormatBits(L, 0))
	assert.Equal(t, uint16(0x5412), FormatBits(M, 0))
	assert.Equal(t, uint16(0x355f), FormatBits(Q, 0))
	assert.Equal(t, uint16(0x1689), FormatBits(H, 0))
	// distinct codes for all levels and masks
	seen := map[uint16]bool{}
	for l := L; l <= H; l++ {
		for m := Mask(0); m < NumMasks; m++ {
			fb := FormatBits(l, m)
			assert.False(t, seen[fb])
			seen[fb] = true
		}
	}
}

func TestVersionBits(t *testing.T) {
	for v := MinVersion; v < 7; v++ {
		assert.Zero(t, VersionBits(v))
	}
	assert.Equal(t, uint32(0x07c94), VersionBits(7))
	assert.Equal(t, uint32(0x085bc), VersionBits(8))
	assert.Equal(t, uint32(0x28c69), VersionBits(40))
	for v := Version(7); v <= MaxVersion; v++ {
		vb := VersionBits(v)
		assert.Equal(t, uint32(v), vb>>12)
		// remainder of division by the generator is zero
		r := vb
		for i := 17; i >= 12; i-- {
			if r>>i&1 != 0 {
				r ^= 0x1f25 << (i - 12)
			}
		}
		assert.Zero(t, r, "version %d", v)
	}
}

func TestPlanPatterns(t *testing.T) {
	p, err := NewPlan(7, M)
	require.NoError(t, err)
	c := p.Apply(p.newBitmap(), 0)
	siz := p.Size
	assert.Equal(t, 45, siz)

	// position boxes with separators
	for _, o := range [][2]int{{0, 0}, {siz - 7, 0}, {0, siz - 7}} {
		x, y := o[0], o[1]
		assert.True(t, c.Black(x, y))
		assert.True(t, c.Black(x+6, y+6))
		assert.False(t, c.Black(x+1, y+1))
		assert.True(t, c.Black(x+3, y+3))
		assert.True(t, c.Black(x+2, y+4))
	}
	assert.False(t, c.Black(7, 7))
	assert.False(t, c.Black(siz-8, 7))
	assert.False(t, c.Black(7, siz-8))

	// timing patterns
	for i := 8; i < siz-8; i++ {
		assert.Equal(t, i%2 == 0, c.Black(i, 6), "x=%d", i)
		assert.Equal(t, i%2 == 0, c.Black(6, i), "y=%d", i)
	}

	// dark module
	assert.True(t, c.Black(8, siz-8))
	assert.True(t, p.IsFunction(8, siz-8))

	// alignment boxes at 6, 22, 38 except over position boxes
	for _, a := range [][2]int{{22, 6}, {6, 22}, {22, 22}, {38, 22}, {22, 38}, {38, 38}} {
		x, y := a[0], a[1]
		assert.True(t, c.Black(x, y), "%v", a)
		assert.False(t, c.Black(x+1, y), "%v", a)
		assert.True(t, c.Black(x+2, y-2), "%v", a)
	}

	// version information
	vb := VersionBits(7)
	for i := 0; i < 18; i++ {
		assert.Equal(t, vb>>i&1 != 0, c.Black(siz-11+i%3, i/3))
		assert.Equal(t, vb>>i&1 != 0, c.Black(i/3, siz-11+i%3))
	}
}

// readFormat reads both copies of the format information.
func readFormat(c *Code) (a, b uint16) {
	bit := func(x, y, i int) uint16 {
		if c.Black(x, y) {
			return 1 << i
		}
		return 0
	}
	for i := 0; i < 6; i++ {
		a |= bit(8, i, i)
	}
	a |= bit(8, 7, 6) | bit(8, 8, 7) | bit(7, 8, 8)
	for i := 9; i < 15; i++ {
		a |= bit(14-i, 8, i)
	}
	for i := 0; i < 8; i++ {
		b |= bit(c.Size-1-i, 8, i)
	}
	for i := 8; i < 15; i++ {
		b |= bit(8, c.Size-15+i, i)
	}
	return a, b
}

func TestCandidates(t *testing.T) {
	e, err := NewEncoder(3, Q)
	require.NoError(t, err)
	require.NoError(t, e.Write(Segment{"QR CODE 1234", Alphanumeric}))
	cc, err := e.Candidates()
	require.NoError(t, err)

	best, err := e.Code()
	require.NoError(t, err)
	low := cc[0].Penalty()
	for m, c := range cc {
		assert.Equal(t, Mask(m), c.Mask)
		a, b := readFormat(c)
		assert.Equal(t, FormatBits(Q, Mask(m)), a)
		assert.Equal(t, a, b)
		if p := c.Penalty(); p < low {
			low = p
		}
		sum := 0
		for r := RunRule; r < NumRules; r++ {
			sum += c.PenaltyBy(r)
		}
		assert.Equal(t, c.Penalty(), sum)
	}
	assert.Equal(t, low, best.Penalty())
	for m := Mask(0); m < best.Mask; m++ {
		assert.Greater(t, cc[m].Penalty(), low, "mask %d", m)
	}

	// candidates differ only in data pixels and format information
	p := e.p
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			if !p.IsFunction(x, y) {
				// unmasking yields the same data
				d := cc[0].Black(x, y) != Mask(0).Black(x, y)
				for m := 1; m < NumMasks; m++ {
					assert.Equal(t, d, cc[m].Black(x, y) != Mask(m).Black(x, y))
				}
			}
		}
	}
}

func TestEncoderTooSmall(t *testing.T) {
	e, err := NewEncoder(1, H)
	require.NoError(t, err)
	require.NoError(t, e.Write(Segment{"HELLO WORLD", Alphanumeric}))
	_, err = e.Code()
	assert.Equal(t, VersionTooSmallError{1, H, 74}, err)

	e.Reset()
	require.NoError(t, e.Write(Segment{"HELLO", Alphanumeric}))
	c, err := e.Code()
	require.NoError(t, err)
	assert.Equal(t, 21, c.Size)

	_, err = NewEncoder(0, L)
	assert.ErrorIs(t, err, ErrVersion)
	_, err = NewEncoder(1, 4)
	assert.ErrorIs(t, err, ErrLevel)
}

func TestPlanShared(t *testing.T) {
	p1, err := NewPlan(10, L)
	require.NoError(t, err)
	p2, err := NewPlan(10, L)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Q", Q.String())
	assert.Equal(t, "7", Level(7).String())
	assert.Equal(t, "latin-1", Latin1.String())
	assert.Equal(t, "40", MaxVersion.String())
	assert.Equal(t, "finder", FinderRule.String())
}
