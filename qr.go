// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes and renders them as vector images.

Encode chooses segment modes and the smallest QR version holding the
text, and the mask with the lowest penalty.  Render converts a Code to
a Vector describing the dark modules as rectangles and an SVG path,
which can be written as SVG or rasterized.
*/
package qr // import "github.com/unixdj/qrgen"

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/split"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level = coding.Level

const (
	L = coding.L // 7% recoverable
	M = coding.M // 15% recoverable
	Q = coding.Q // 25% recoverable
	H = coding.H // 30% recoverable
)

// A Version is a QR version, 1 to 40.
type Version = coding.Version

// Errors returned by Encode.
type (
	CapacityError         = coding.CapacityError
	VersionTooSmallError  = coding.VersionTooSmallError
	InvalidCharacterError = coding.InvalidCharacterError
)

var (
	ErrLevel   = coding.ErrLevel
	ErrVersion = coding.ErrVersion
	ErrMode    = coding.ErrMode
)

// A Mode selects the segment encoding.
type Mode int

const (
	Auto         Mode = iota // split into numeric, alphanumeric and byte
	Numeric                  // digits only
	Alphanumeric             // digits, upper case letters and " $%*+-./:"
	Byte                     // any bytes, UTF-8 by convention
	Latin1                   // UTF-8 text transcoded to ISO 8859-1
)

var modeNames = [...]string{"auto", "numeric", "alphanumeric", "byte", "latin1"}

func (m Mode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return strconv.Itoa(int(m))
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool { return Auto <= m && m <= Latin1 }

// ParseMode returns the mode named s, ignoring case.
func ParseMode(s string) (Mode, error) {
	for i, v := range modeNames {
		if strings.EqualFold(s, v) {
			return Mode(i), nil
		}
	}
	return 0, ErrMode
}

func (m Mode) coding() coding.Mode {
	if m == Auto {
		return split.Auto
	}
	return coding.Mode(m - 1)
}

// Options control encoding.  A nil *Options means level M, automatic
// version and automatic segmentation.
type Options struct {
	Level   Level   // error correction level
	Version Version // QR version, or 0 for the smallest fitting one
	Mode    Mode    // segment mode, Auto by default
}

// Default image parameters for a new Code.
const (
	DefaultScale  = 8
	DefaultBorder = 4
)

// A Code is a QR code: a square pixel grid with its version, level and
// mask.  Scale and Border are used by Image, EncodePBM and String.
type Code struct {
	coding.Code
	Scale  int // image pixels per QR pixel
	Border int // quiet zone width in QR pixels
}

// Encode returns an encoding of text at the given error correction level.
func Encode(text string, level Level) (*Code, error) {
	return EncodeWith(text, &Options{Level: level})
}

// EncodeWith returns an encoding of text with the given options.
func EncodeWith(text string, opt *Options) (*Code, error) {
	o := Options{Level: M}
	if opt != nil {
		o = *opt
	}
	if !o.Mode.IsValid() {
		return nil, ErrMode
	}
	seg, v, err := split.Split(text, o.Mode.coding(), o.Level, o.Version)
	if err != nil {
		return nil, err
	}
	cc, err := coding.Encode(v, o.Level, seg...)
	if err != nil {
		return nil, err
	}
	return &Code{Code: *cc, Scale: DefaultScale, Border: DefaultBorder}, nil
}

// Penalties returns the penalty of c under each rule.
func (c *Code) Penalties() [coding.NumRules]int {
	var p [coding.NumRules]int
	for r := range p {
		p[r] = c.PenaltyBy(coding.PenaltyRule(r))
	}
	return p
}

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	return &codeImage{c}
}

// codeImage implements image.Image
type codeImage struct {
	*Code
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (c *codeImage) Bounds() image.Rectangle {
	d := (c.Size + 2*c.Border) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	if c.Black(x/c.Scale-c.Border, y/c.Scale-c.Border) {
		return blackColor
	}
	return whiteColor
}

func (c *codeImage) ColorModel() color.Model {
	return color.GrayModel
}

// String returns the code drawn with Unicode half blocks, two rows of
// pixels per line, with a quiet zone of c.Border.
func (c *Code) String() string {
	var b strings.Builder
	bord := c.Border
	for y := -bord; y < c.Size+bord; y += 2 {
		for x := -bord; x < c.Size+bord; x++ {
			switch up, down := c.Black(x, y), c.Black(x, y+1); {
			case up && down:
				b.WriteString("█")
			case up:
				b.WriteString("▀")
			case down:
				b.WriteString("▄")
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
