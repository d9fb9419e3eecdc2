// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "strconv"

// A Mask is one of the eight QR data mask patterns.
type Mask int

// NumMasks is the number of mask patterns.
const NumMasks = 8

// Black reports whether mask m inverts the pixel at (x,y).
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
func (m Mask) Black(x, y int) bool {
	switch m {
	case 0:
		return (x+y)%2 == 0
	case 1:
		return y%2 == 0
	case 2:
		return x%3 == 0
	case 3:
		return (x+y)%3 == 0
	case 4:
		return (x/3+y/2)%2 == 0
	case 5:
		return x*y%2+x*y%3 == 0
	case 6:
		return (x*y%2+x*y%3)%2 == 0
	case 7:
		return ((x+y)%2+x*y%3)%2 == 0
	}
	panic("qr: invalid mask " + strconv.Itoa(int(m)))
}

// A PenaltyRule is one of the four rules scoring a masked QR code.
// Total penalty is the sum of penalties for runs and boxes of
// same-colour pixels, finder patterns and colour balance.
type PenaltyRule int

const (
	RunRule     PenaltyRule = iota // runs of n>=5 pixels -> n-2
	BoxRule                        // possibly overlapping 2x2 boxes -> 3
	FinderRule                     // 1:1:3:1:1 with 4 light on a side -> 40
	BalanceRule                    // 10 for every 5% off 50% black
	NumRules
)

// https://www.nayuki.io/page/creating-a-qr-code-step-by-step
const (
	minRun     = 5  // RunRule: minimum run length
	runDelta   = -2 // RunRule: add to run length
	boxPoints  = 3  // BoxRule: points per box
	findPoints = 40 // FinderRule: points per pattern
	balPoints  = 10 // BalanceRule: points per 5% step

	// finder-like patterns, last pixel in the lowest bit
	findBefore = 0b0000_1011101 // light before
	findAfter  = 0b1011101_0000 // light after
	findMask   = 1<<11 - 1
)

var ruleNames = [NumRules]string{"run", "box", "finder", "balance"}

func (r PenaltyRule) String() string {
	if 0 <= r && r < NumRules {
		return ruleNames[r]
	}
	return strconv.Itoa(int(r))
}

var rules = [NumRules]func(*Code) int{
	RunRule:     runPenalty,
	BoxRule:     boxPenalty,
	FinderRule:  finderPenalty,
	BalanceRule: balancePenalty,
}

// Penalty returns the penalty value for a QR code.  The value is used
// for choosing the mask.
func (c *Code) Penalty() int {
	p := 0
	for _, f := range rules {
		p += f(c)
	}
	return p
}

// PenaltyBy returns the penalty value for a QR code under rule r.
func (c *Code) PenaltyBy(r PenaltyRule) int {
	return rules[r](c)
}

// line returns the colour of pixel j in row i, or in column i if
// vertical is set.
func (c *Code) line(i, j int, vertical bool) bool {
	if vertical {
		return c.Black(i, j)
	}
	return c.Black(j, i)
}

func runPenalty(c *Code) int {
	p := 0
	for _, vert := range [2]bool{false, true} {
		for i := 0; i < c.Size; i++ {
			r := 1
			last := c.line(i, 0, vert)
			for j := 1; j < c.Size; j++ {
				if cur := c.line(i, j, vert); cur != last {
					if r >= minRun {
						p += r + runDelta
					}
					r, last = 0, cur
				}
				r++
			}
			if r >= minRun {
				p += r + runDelta
			}
		}
	}
	return p
}

func boxPenalty(c *Code) int {
	p := 0
	for y := 1; y < c.Size; y++ {
		for x := 1; x < c.Size; x++ {
			b := c.Black(x, y)
			if c.Black(x-1, y) == b && c.Black(x, y-1) == b &&
				c.Black(x-1, y-1) == b {
				p += boxPoints
			}
		}
	}
	return p
}

// finderPenalty counts finder-like patterns.  The light side may extend
// into the quiet zone.
func finderPenalty(c *Code) int {
	p := 0
	for _, vert := range [2]bool{false, true} {
		for i := 0; i < c.Size; i++ {
			var pat uint16 // last 11 pixels
			for j := -4; j < c.Size+4; j++ {
				pat <<= 1
				if c.line(i, j, vert) {
					pat |= 1
				}
				pat &= findMask
				if pat == findBefore || pat == findAfter {
					p += findPoints
				}
			}
		}
	}
	return p
}

func balancePenalty(c *Code) int {
	black := 0
	for _, b := range c.Bitmap {
		for ; b != 0; b &= b - 1 {
			black++
		}
	}
	total := c.Size * c.Size
	// k is the number of whole 5% steps away from 50%,
	// exact percentages rounding towards 50%.
	k := (abs(black*20-total*10)+total-1)/total - 1
	return max(k, 0) * balPoints
}
