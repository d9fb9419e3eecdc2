// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"errors"
	"io"
	"strconv"
)

// ErrArgs is returned for a Code with invalid Scale or Border.
var ErrArgs = errors.New("qr: invalid arguments")

func (c *Code) isValid() bool {
	return c.Scale > 0 && c.Border >= 0 && c.Size > 0
}

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	scale := c.Scale
	bord := c.Border
	length := scale * (c.Size + bord*2)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	// Each QR row is expanded once and written scale times.
	// Quiet zone rows are all zero.
	row := make([]byte, (length+7)/8)
	for y := -bord; y < c.Size+bord; y++ {
		clear(row)
		for x := 0; x < c.Size; x++ {
			if !c.Black(x, y) {
				continue
			}
			for i := (x + bord) * scale; i < (x+bord+1)*scale; i++ {
				row[i>>3] |= 0x80 >> (i & 7)
			}
		}
		for i := 0; i < scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}
