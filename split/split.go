// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split splits strings into QR code segments and chooses the QR
code version.
*/
package split // import "github.com/unixdj/qrgen/split"

import "github.com/unixdj/qrgen/coding"

// Auto requests splitting text into segments of the modes encoding it
// in the fewest bits.
const Auto = coding.Mode(-1)

// Bit fields of modes valid for a byte.
const (
	numModes    = 1<<coding.Numeric | 1<<coding.Alphanumeric | 1<<coding.Byte
	alphaModes  = 1<<coding.Alphanumeric | 1<<coding.Byte
	stringModes = 1 << coding.Byte

	nmodes = coding.Byte + 1 // modes used by the splitter
)

type (
	// segment describes a segment encoded in a certain mode.
	segment struct {
		next   *segment    // link to next segment in the chain
		start  int         // start of string
		slen   int         // length of string in bytes
		weight int         // encoded size of all segments in the chain
		mode   coding.Mode // encoding mode
	}

	// span describes a span of bytes encodable in the same modes.
	span struct {
		start int             // start of string
		slen  int             // length of string in bytes
		modes byte            // bit field of valid encoding modes
		seg   [nmodes]segment // segments
	}
)

// classify splits text into spans of bytes encodable in the same modes.
func classify(text string) []span {
	if text == "" {
		return nil
	}

	// Scan the string, detect valid encoding modes for each rune.
	// Continuation bytes of multibyte runes are left 0.
	modes := make([]byte, len(text))
	common := ^byte(0) // bit field of modes common to all spans
	n := 0
	m := byte(0)
	for i, r := range text {
		old := m
		switch {
		case coding.IsNumeric(r):
			m = numModes
		case coding.IsAlphanumeric(r):
			m = alphaModes
		default:
			m = stringModes
		}
		modes[i] = m
		if m != old {
			common &= m
			n++
		}
	}

	// When a mode is valid for all spans, the modes above it are
	// never better.  Mask them out, keeping the lowest common one.
	mask := ^common | -common

	sp := make([]span, n)
	old, n := byte(0), 0
	for i, v := range modes {
		if v != 0 && v != old {
			if i != 0 {
				sp[n].slen = i - sp[n].start
				n++
			}
			sp[n].start = i
			sp[n].modes = v & mask
			old = v
		}
	}
	sp[n].slen = len(modes) - sp[n].start
	return sp
}

/*
split returns the optimal split for the string described by sp at
the given QR version size class.

For last span, for each valid mode j:
  - Create a segment sp[len(sp)-1].seg[j] describing the span
    encoded in mode j.  Calculate the weight (encoded length in
    bits).

Then walk backwards through the rest of the spans.
For each span i, for each valid mode j:
  - For each mode k valid for span i+1, create a segment linking
    to next=sp[i+1].seg[k].  If k==j, merge the segments by
    adding the length of next and linking to next.next instead.
    Calculate the weight of the segment.  If next is not nil, add
    the weight of next to get the combined weight of the chain.
  - From those segments choose the one with the smallest weight.
    Assign it to sp[i].seg[j].

Return the address of the segment in sp[0].seg with the smallest
weight, or nil if sp is empty.
*/
func split(sp []span, class int) *segment {
	const inf = 1 << 30
	weight := func(mode coding.Mode, slen int) int {
		return mode.Length(slen, 0, class)
	}

	// Process last span.  Create a segment for each valid mode.
	i := len(sp) - 1
	if i < 0 {
		return nil
	}
	for j := coding.Mode(0); j < nmodes; j++ {
		seg := &sp[i].seg[j]
		*seg = segment{weight: inf}
		if sp[i].modes>>j&1 != 0 {
			*seg = segment{
				start:  sp[i].start,
				slen:   sp[i].slen,
				weight: weight(j, sp[i].slen),
				mode:   j,
			}
		}
	}

	// Process the rest of the spans.
	for i--; i >= 0; i-- {
		v := &sp[i]
		ns := &sp[i+1].seg
		for j := coding.Mode(0); j < nmodes; j++ {
			seg := &v.seg[j]
			*seg = segment{weight: inf}
			if v.modes>>j&1 == 0 {
				continue
			}
			for k := coding.Mode(0); k < nmodes; k++ {
				next := &ns[k]
				if next.weight == inf {
					continue
				}
				c := segment{
					next:   next,
					start:  v.start,
					slen:   v.slen,
					weight: weight(j, v.slen),
					mode:   j,
				}
				if k == j {
					c.slen += c.next.slen
					c.next = c.next.next
					c.weight = weight(j, c.slen)
				}
				if c.next != nil {
					c.weight += c.next.weight
				}
				if c.weight < seg.weight {
					*seg = c
				}
			}
		}
	}

	// Choose the first segment with the smallest weight
	seg := &sp[0].seg[0]
	for j := 1; j < int(nmodes); j++ {
		if sp[0].seg[j].weight < seg.weight {
			seg = &sp[0].seg[j]
		}
	}
	return seg
}

// segments converts the chain starting at seg to coding.Segments.
func segments(text string, seg *segment) []coding.Segment {
	n := 0
	for s := seg; s != nil; s = s.next {
		n++
	}
	list := make([]coding.Segment, 0, n)
	for ; seg != nil; seg = seg.next {
		list = append(list, coding.Segment{
			Text: text[seg.start : seg.start+seg.slen],
			Mode: seg.mode,
		})
	}
	return list
}

// A splitter returns segments and their encoded length in bits for a
// version size class.
type splitter func(class int) ([]coding.Segment, int)

// autoSplitter returns a splitter choosing optimal segment modes.
func autoSplitter(text string) splitter {
	sp := classify(text)
	return func(class int) ([]coding.Segment, int) {
		seg := split(sp, class)
		if seg == nil {
			return nil, 0
		}
		return segments(text, seg), seg.weight
	}
}

// modeSplitter returns a splitter encoding text in a single segment
// of the given mode.  Empty text is encoded as no segments.
func modeSplitter(text string, mode coding.Mode) (splitter, error) {
	seg := coding.Segment{Text: text, Mode: mode}
	if !seg.IsValid() {
		if seg.EncodedLength(coding.Class0) == 0 {
			return nil, coding.ErrMode
		}
		return nil, coding.InvalidCharacterError(seg)
	}
	if text == "" {
		return func(int) ([]coding.Segment, int) { return nil, 0 }, nil
	}
	return func(class int) ([]coding.Segment, int) {
		return []coding.Segment{seg}, seg.EncodedLength(class)
	}, nil
}

/*
Split returns segments and the QR code version for text at the given
error correction level.

If mode is Auto, text is split into Numeric, Alphanumeric and Byte
segments encoding it in the fewest bits.  Otherwise text is encoded in
a single segment of the given mode, and InvalidCharacterError is
returned if text contains characters the mode cannot encode.

If version is 0, the smallest version holding the data is returned,
or CapacityError if not even version 40 does.  Otherwise the data must
fit into the given version, or VersionTooSmallError is returned.
*/
func Split(text string, mode coding.Mode, level coding.Level, version coding.Version) ([]coding.Segment, coding.Version, error) {
	if !level.IsValid() {
		return nil, 0, coding.ErrLevel
	}
	if version != 0 && !version.IsValid() {
		return nil, 0, coding.ErrVersion
	}
	var sp splitter
	if mode == Auto {
		sp = autoSplitter(text)
	} else {
		var err error
		if sp, err = modeSplitter(text, mode); err != nil {
			return nil, 0, err
		}
	}

	if version != 0 {
		seg, bits := sp(version.SizeClass())
		if bits > version.DataBits(level) {
			return nil, 0, coding.VersionTooSmallError{
				Version: version,
				Level:   level,
				Bits:    bits,
			}
		}
		return seg, version, nil
	}

	// The encoded length grows with the size class, as do
	// capacities, so the first class with a fitting version
	// holds the smallest one.
	var bits int
	for class := coding.Class0; class < coding.Classes; class++ {
		var seg []coding.Segment
		seg, bits = sp(class)
		lo, hi := coding.ClassRange(class)
		if hi.DataBits(level) < bits {
			continue
		}
		// Binary search for the version in the size class.
		for lo < hi {
			if mid := (lo + hi) / 2; mid.DataBits(level) < bits {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		return seg, lo, nil
	}
	return nil, 0, coding.CapacityError{Level: level, Bits: bits}
}

