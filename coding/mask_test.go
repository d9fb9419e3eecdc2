// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// gridCode returns a Code drawn from rows of '#' (black) and '.'.
func gridCode(rows ...string) *Code {
	siz := len(rows)
	c := &Code{Size: siz, Stride: (siz + 7) >> 3}
	c.Bitmap = make([]byte, siz*c.Stride)
	for y, row := range rows {
		for x := 0; x < siz; x++ {
			if row[x] == '#' {
				set(c.Bitmap, c.Stride, x, y, true)
			}
		}
	}
	return c
}

// fillCode returns a Code of the given size with the first n pixels
// in row-major order black.
func fillCode(siz, n int) *Code {
	c := &Code{Size: siz, Stride: (siz + 7) >> 3}
	c.Bitmap = make([]byte, siz*c.Stride)
	for i := 0; i < n; i++ {
		set(c.Bitmap, c.Stride, i%siz, i/siz, true)
	}
	return c
}

func TestMaskPatterns(t *testing.T) {
	for _, tt := range []struct {
		m    Mask
		rows []string
	}{
		{0, []string{"#.#.#.", ".#.#.#", "#.#.#."}},
		{1, []string{"######", "......", "######"}},
		{2, []string{"#..#..", "#..#..", "#..#.."}},
		{3, []string{"#..#..", "..#..#", ".#..#."}},
		{4, []string{"###...", "###...", "...###"}},
	} {
		for y, row := range tt.rows {
			for x := range row {
				assert.Equal(t, row[x] == '#', tt.m.Black(x, y),
					"mask %d at (%d,%d)", tt.m, x, y)
			}
		}
	}
	// (0,0) is inverted by every mask
	for m := Mask(0); m < NumMasks; m++ {
		assert.True(t, m.Black(0, 0))
	}
	assert.Panics(t, func() { Mask(NumMasks).Black(0, 0) })
}

func TestRunPenalty(t *testing.T) {
	c := gridCode(
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	// 5 in each of 10 lines
	assert.Equal(t, 10*3, c.PenaltyBy(RunRule))

	c = gridCode(
		"#######",
		".#.#.#.",
		"#.#.#.#",
		".#.#.#.",
		"#.#.#.#",
		".#.#.#.",
		"#.#.#.#",
	)
	assert.Equal(t, 7-2, c.PenaltyBy(RunRule))

	c = gridCode(
		"#.#.#",
		"#.#.#",
		"#.#.#",
		"#.#.#",
		"#.#.#",
	)
	assert.Equal(t, 5*3, c.PenaltyBy(RunRule))
}

func TestBoxPenalty(t *testing.T) {
	c := gridCode(
		"##.",
		"###",
		".##",
	)
	// two boxes sharing a pixel
	assert.Equal(t, 2*3, c.PenaltyBy(BoxRule))

	c = gridCode(
		"#.#",
		".#.",
		"#.#",
	)
	assert.Zero(t, c.PenaltyBy(BoxRule))

	assert.Equal(t, 16*3, fillCode(5, 0).PenaltyBy(BoxRule))
}

func TestFinderPenalty(t *testing.T) {
	// light on both sides in the quiet zone
	c := gridCode(
		"#.###.#",
		".......",
		".......",
		".......",
		".......",
		".......",
		".......",
	)
	assert.Equal(t, 2*40, c.PenaltyBy(FinderRule))

	// light on one side only
	c = gridCode(
		"#.###.#...#",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
		"...........",
	)
	assert.Equal(t, 40, c.PenaltyBy(FinderRule))

	// vertical
	c = gridCode(
		"..#......",
		".........",
		"..#......",
		"..#......",
		"..#......",
		".........",
		"..#......",
		".........",
		".........",
	)
	assert.Equal(t, 2*40, c.PenaltyBy(FinderRule))

	assert.Zero(t, fillCode(11, 0).PenaltyBy(FinderRule))
}

func TestBalancePenalty(t *testing.T) {
	for _, tt := range []struct {
		black, want int
	}{
		{50, 0},
		{45, 0},
		{55, 0},
		{44, 10},
		{56, 10},
		{40, 10},
		{35, 20},
		{0, 90},
		{100, 90},
	} {
		assert.Equal(t, tt.want, fillCode(10, tt.black).PenaltyBy(BalanceRule),
			"%d%% black", tt.black)
	}
}

func TestPenaltySum(t *testing.T) {
	c := fillCode(5, 0)
	// runs 30, boxes 48, balance 90
	assert.Equal(t, 30+48+90, c.Penalty())
}
