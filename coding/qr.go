// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details.
package coding // import "github.com/unixdj/qrgen/coding"

//go:generate sh -c "go run gen.go | gofmt > tables.go"

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"github.com/unixdj/qrgen/gf256"
)

var (
	ErrLevel   = errors.New("qr: invalid level")
	ErrVersion = errors.New("qr: invalid version")
	ErrMode    = errors.New("qr: invalid mode")
)

// Field returns the field for QR error correction.  It is built on
// first use and shared afterwards.
var Field = sync.OnceValue(func() *gf256.Field {
	return gf256.NewField(0x11d, 2)
})

// Reed-Solomon encoders by number of check bytes per block.
// The largest number used by any version and level is 30.
var rsenc [31]struct {
	once sync.Once
	rs   *gf256.RSEncoder
}

func rsEncoder(check int) *gf256.RSEncoder {
	e := &rsenc[check]
	e.once.Do(func() { e.rs = gf256.NewRSEncoder(Field(), check) })
	return e.rs
}

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version,
// the more information the code can store.
type Version int

const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// IsValid reports whether v is a QR version.
func (v Version) IsValid() bool { return MinVersion <= v && v <= MaxVersion }

// Size returns the number of modules on a side of a QR code of
// version v.
func (v Version) Size() int { return int(v)*4 + 17 }

// QR version size classes.  The size class determines the length of
// the character count field.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
	Classes       // number of size classes
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// ClassRange returns the lowest and the highest version in the size
// class.
func ClassRange(class int) (lo, hi Version) {
	return [Classes]Version{1, 10, 27}[class],
		[Classes]Version{9, 26, 40}[class]
}

// dataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) dataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int {
	return v.dataBytes(l) * 8
}

// Blocks returns the number of error correction blocks and the
// number of check bytes per block for the given version and level.
func (v Version) Blocks(l Level) (nblock, check int) {
	lev := vtab[v].level[l]
	return lev.nblock, lev.check
}

// TotalBytes returns the number of data and check codewords in a QR
// code of version v.
func (v Version) TotalBytes() int { return vtab[v].bytes }

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 7% recoverable
	M              // 15% recoverable
	Q              // 25% recoverable
	H              // 30% recoverable
)

func (l Level) String() string {
	if l.IsValid() {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// IsValid reports whether l is a QR error correction level.
func (l Level) IsValid() bool { return L <= l && l <= H }

// Bits is a bit buffer holding the data and check codewords of a QR
// code.  Bits are written most significant first.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version.
func NewBits(v Version) *Bits {
	return &Bits{b: make([]byte, 0, vtab[v].bytes)}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

// Bits returns the number of bits written.
func (b *Bits) Bits() int { return b.nbit }

// Bytes returns the written bytes.  It panics unless a whole number
// of bytes has been written.
func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	return b.b
}

func (b *Bits) clone() *Bits {
	return &Bits{b: slices.Clone(b.b), nbit: b.nbit}
}

// Write appends the nbit least significant bits of v to b.
func (b *Bits) Write(v uint32, nbit int) {
	for nbit > 0 {
		if b.nbit&7 == 0 {
			b.b = append(b.b, 0)
		}
		free := 8 - b.nbit&7
		n := min(free, nbit)
		chunk := byte(v >> (nbit - n) & (1<<n - 1))
		b.b[len(b.b)-1] |= chunk << (free - n)
		b.nbit += n
		nbit -= n
	}
}

// Pad adds the terminator and padding to fill n bytes: up to 4 zero
// bits, zero bits up to the byte boundary, then alternating 0xec and
// 0x11 bytes.
func (b *Bits) Pad(n int) {
	b.Write(0, min(4, n*8-b.nbit))
	b.Write(0, -b.nbit&7)
	for pad := byte(0xec); len(b.b) < n; pad ^= 0xec ^ 0x11 {
		b.b = append(b.b, pad)
	}
	b.nbit = len(b.b) * 8
}

// AddCheckBytes adds terminator, padding and check bytes to b for the
// given QR version and level.  The data are split into blocks, the
// shorter ones first, and the check bytes of each block are appended
// in block order.
func (b *Bits) AddCheckBytes(v Version, l Level) {
	nd := v.dataBytes(l)
	if b.nbit > nd*8 {
		panic("qr: too much data")
	}
	b.Pad(nd)

	nblock, check := v.Blocks(l)
	rs := rsEncoder(check)
	db := nd / nblock
	short := nblock - nd%nblock
	ecc := make([]byte, nblock*check)
	dat := b.b[:nd]
	for i := 0; i < nblock; i++ {
		n := db
		if i >= short {
			n++
		}
		rs.ECC(dat[:n], ecc[i*check:])
		dat = dat[n:]
	}
	b.b = append(b.b, ecc...)
	b.nbit = len(b.b) * 8

	if len(b.b) != vtab[v].bytes {
		panic("qr: internal error")
	}
}

// interleave interleaves src into dst, which must be of equal length.
// src consists of nblock blocks; when the length is not a multiple of
// nblock, the last len(src)%nblock blocks are one byte longer.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	short := nblock - len(src)%nblock
	for i := 0; i < nblock; i++ {
		for j := 0; j < db; j++ {
			dst[j*nblock+i] = src[j]
		}
		src = src[db:]
		if i >= short {
			dst[db*nblock+i-short] = src[0]
			src = src[1:]
		}
	}
}

// Permute returns a BitStream reading data and check bits in b
// with blocks interleaved for the given QR code version and level:
// data bytes column by column across the blocks, then check bytes
// the same way.
func (b *Bits) Permute(v Version, l Level) BitStream {
	src := b.Bytes()
	if len(src) != vtab[v].bytes {
		panic("qr: wrong data length")
	}
	nblock, _ := v.Blocks(l)
	if nblock == 1 {
		return NewBitStream(src)
	}
	dst := make([]byte, len(src))
	nd := v.dataBytes(l)
	interleave(dst[:nd], src[:nd], nblock)
	interleave(dst[nd:], src[nd:], nblock)
	return NewBitStream(dst)
}

// BitStream reads bits from the underlying buffer.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Bytes returns the data underlying s.
func (s *BitStream) Bytes() []byte { return s.b }

// Next returns the next bit from s.
// Past end of buffer Next returns false, leaving remainder bits light.
func (s *BitStream) Next() bool {
	i := s.pos >> 3
	if i >= len(s.b) {
		return false
	}
	bit := s.b[i]>>(7&^s.pos)&1 != 0
	s.pos++
	return bit
}

// A Mode is a QR segment encoding mode.
type Mode int8

// Predefined encoding modes.
const (
	Numeric      Mode = iota // numeric mode, ASCII-compatible text
	Alphanumeric             // alphanumeric mode, ASCII-compatible text
	Byte                     // byte mode, any data
	Latin1                   // byte mode, UTF-8 text encoded as ISO 8859-1
	Modes                    // number of modes
)

// modeEncoder implements a QR segment encoding.
type modeEncoder struct {
	name      string // name for error reporting
	indicator byte   // 4 bit mode indicator

	// countLength lists lengths of the character count field in
	// the three version size classes.
	countLength [Classes]byte

	// encodedLength returns the encoded data length in bits of a
	// valid string of the given length in bytes and runes.
	// If nil, each byte is encoded as 8 bits.
	encodedLength func(bytes, runes int) int

	// accepts reports whether the mode accepts the rune.  If nil,
	// any string is valid.  If runes is set, the string is decoded
	// as UTF-8, otherwise each byte is checked.
	accepts func(rune) bool
	runes   bool

	// transform returns the string transformed to a segment of
	// another mode, and whether the transform was successful.
	transform func(string) (Segment, bool)

	// encode writes the encoded string.  If nil, each byte is
	// written as 8 bits.
	encode func(*Bits, string)
}

// alphabet lists the characters of the alphanumeric mode by value.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

func isDigit(r rune) bool { return uint32(r-'0') < 10 }

func isAlnum(r rune) bool {
	return r < 0x80 && strings.IndexByte(alphabet, byte(r)) >= 0
}

// IsNumeric reports whether r is encodable in numeric mode.
func IsNumeric(r rune) bool { return isDigit(r) }

// IsAlphanumeric reports whether r is encodable in alphanumeric mode.
func IsAlphanumeric(r rune) bool { return isAlnum(r) }

var modes = [Modes]modeEncoder{
	Numeric: {
		name:          "numeric",
		indicator:     1,
		countLength:   [Classes]byte{10, 12, 14},
		encodedLength: func(b, r int) int { return (10*b + 2) / 3 },
		accepts:       isDigit,
		encode: func(b *Bits, s string) {
			// 3 digits in 10 bits, remainder in 7 or 4
			for len(s) > 0 {
				n := min(len(s), 3)
				v := uint32(0)
				for i := 0; i < n; i++ {
					v = v*10 + uint32(s[i]-'0')
				}
				b.Write(v, 3*n+1)
				s = s[n:]
			}
		},
	},
	Alphanumeric: {
		name:          "alphanumeric",
		indicator:     2,
		countLength:   [Classes]byte{9, 11, 13},
		encodedLength: func(b, r int) int { return (11*b + 1) / 2 },
		accepts:       isAlnum,
		encode: func(b *Bits, s string) {
			// 2 characters in 11 bits, remainder in 6
			for ; len(s) >= 2; s = s[2:] {
				b.Write(uint32(strings.IndexByte(alphabet, s[0])*45+
					strings.IndexByte(alphabet, s[1])), 11)
			}
			if s != "" {
				b.Write(uint32(strings.IndexByte(alphabet, s[0])), 6)
			}
		},
	},
	Byte: {
		name:        "byte",
		indicator:   4,
		countLength: [Classes]byte{8, 16, 16},
	},
	Latin1: {
		name:          "latin-1",
		indicator:     4,
		countLength:   [Classes]byte{8, 16, 16},
		encodedLength: func(b, r int) int { return r * 8 },
		accepts:       func(r rune) bool { return uint32(r) < 0x100 },
		runes:         true,
		transform: func(s string) (Segment, bool) {
			t, err := charmap.ISO8859_1.NewEncoder().String(s)
			return Segment{t, Byte}, err == nil
		},
	},
}

func getMode(mode Mode) *modeEncoder {
	if mode >= 0 && mode < Modes {
		return &modes[mode]
	}
	return nil
}

func (mode Mode) String() string {
	if m := getMode(mode); m != nil {
		return m.name
	}
	return strconv.Itoa(int(mode))
}

// Is reports whether r is encodable in mode.
func Is(r rune, mode Mode) bool {
	m := getMode(mode)
	return m != nil && (m.accepts == nil || m.accepts(r))
}

// Length returns the length in bits of a valid string of the given
// length in bytes and runes encoded in mode at the given QR version
// size class, including the header.  Length returns 0 if and only if
// mode is invalid.
func (mode Mode) Length(bytes, runes, class int) int {
	if m := getMode(mode); m != nil {
		return m.length(bytes, runes, class)
	}
	return 0
}

func (m *modeEncoder) length(bytes, runes, class int) int {
	n := 4 + int(m.countLength[class])
	if f := m.encodedLength; f != nil {
		n += f(bytes, runes)
	} else {
		n += bytes * 8
	}
	return n
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// isValid reports whether s is encodable by m.
func (m *modeEncoder) isValid(s string) bool {
	if m.accepts == nil {
		return true
	}
	if m.runes {
		for _, r := range s {
			if !m.accepts(r) {
				return false
			}
		}
		return true
	}
	for i := 0; i < len(s); i++ {
		if !m.accepts(rune(s[i])) {
			return false
		}
	}
	return true
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	m := getMode(seg.Mode)
	return m != nil && m.isValid(seg.Text)
}

// EncodedLength returns the encoded length in bits of seg in the
// given QR version size class.  EncodedLength returns 0 if and only
// if mode is invalid.  The segment is not validated.
func (seg Segment) EncodedLength(class int) int {
	m := getMode(seg.Mode)
	if m == nil {
		return 0
	}
	runes := len(seg.Text)
	if m.runes {
		runes = len([]rune(seg.Text))
	}
	return m.length(len(seg.Text), runes, class)
}

// transform validates seg and transforms it for encoding.
func (seg Segment) transform() (Segment, *modeEncoder, error) {
	m := getMode(seg.Mode)
	if m == nil {
		return Segment{}, nil, ErrMode
	}
	if !m.isValid(seg.Text) {
		return Segment{}, nil, InvalidCharacterError(seg)
	}
	if m.transform == nil {
		return seg, m, nil
	}
	ts, ok := m.transform(seg.Text)
	if !ok {
		return Segment{}, nil, InvalidCharacterError(seg)
	}
	return ts, getMode(ts.Mode), nil
}

// Encode writes seg encoded for the given QR version size class to b:
// the mode indicator, the character count and the data.
func (seg Segment) Encode(b *Bits, class int) error {
	ts, m, err := seg.transform()
	if err != nil {
		return err
	}
	s := ts.Text
	b.Write(uint32(m.indicator), 4)
	b.Write(uint32(len(s)), int(m.countLength[class]))
	if m.encode != nil {
		m.encode(b, s)
		return nil
	}
	for i := 0; i < len(s); i++ {
		b.Write(uint32(s[i]), 8)
	}
	return nil
}

// InvalidCharacterError represents a Segment containing characters not
// encodable in its mode.
type InvalidCharacterError Segment

func (e InvalidCharacterError) Error() string {
	return fmt.Sprintf("qr: non-%s string %#q", e.Mode, e.Text)
}

// CapacityError reports data too long for a QR code of any version at
// the given level.
type CapacityError struct {
	Level Level // error correction level
	Bits  int   // encoded data length in bits
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("qr: %d bits of data exceed %d-bit capacity of version %s-%s",
		e.Bits, MaxVersion.DataBits(e.Level), MaxVersion, e.Level)
}

// VersionTooSmallError reports data too long for the requested
// version and level.
type VersionTooSmallError struct {
	Version Version // requested version
	Level   Level   // error correction level
	Bits    int     // encoded data length in bits
}

func (e VersionTooSmallError) Error() string {
	return fmt.Sprintf("qr: cannot encode %d bits into %d-bit version %s-%s",
		e.Bits, e.Version.DataBits(e.Level), e.Version, e.Level)
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap  []byte  // 1 is black, 0 is white
	Size    int     // number of pixels on a side
	Stride  int     // number of bytes per row
	Version Version // QR version
	Level   Level   // error correction level
	Mask    Mask    // mask pattern
}

// Black reports whether the pixel at (x,y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// Encoder encodes a QR code.
type Encoder struct {
	p *Plan
	b *Bits
}

// NewEncoder returns an Encoder for the given version and level.
func NewEncoder(version Version, level Level) (*Encoder, error) {
	p, err := makePlan(version, level)
	if err != nil {
		return nil, err
	}
	return &Encoder{p: p, b: NewBits(version)}, nil
}

// Write adds segments to e.
func (e *Encoder) Write(text ...Segment) error {
	class := e.p.Version.SizeClass()
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

// Reset discards the data written to e.
func (e *Encoder) Reset() { e.b.Reset() }

// Candidates returns QR codes containing data written to e with each
// of the masks applied, indexed by mask.  e is not modified.
func (e *Encoder) Candidates() ([NumMasks]*Code, error) {
	var cc [NumMasks]*Code
	p := e.p
	if e.b.Bits() > p.DataBits {
		return cc, VersionTooSmallError{p.Version, p.Level, e.b.Bits()}
	}
	b := e.b.clone()
	b.AddCheckBytes(p.Version, p.Level)
	// Construct the bitmap consisting of data and check bits,
	// then apply the masks.
	data := p.newBitmap()
	p.Serialise(b.Permute(p.Version, p.Level), data)
	for m := range cc {
		cc[m] = p.Apply(data, Mask(m))
	}
	return cc, nil
}

// Code returns a QR code containing data written to e, choosing the
// mask with the smallest penalty.  On a tie the lowest mask wins.
func (e *Encoder) Code() (*Code, error) {
	cc, err := e.Candidates()
	if err != nil {
		return nil, err
	}
	best, pen := cc[0], cc[0].Penalty()
	for _, c := range cc[1:] {
		if p := c.Penalty(); p < pen {
			best, pen = c, p
		}
	}
	return best, nil
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

// Encode encodes text using an Encoder with the given version and level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}

// A version describes metadata associated with a version.
type version struct {
	apos    int // first alignment pattern centre after 6, or 0
	astride int // distance between alignment pattern centres, or 0
	bytes   int // data and check codewords
	level   [4]level
}

type level struct {
	nblock int // number of error correction blocks
	check  int // check bytes per block
}
