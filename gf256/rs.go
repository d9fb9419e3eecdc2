// Copyright 2010 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

// An RSEncoder implements Reed-Solomon encoding over a given field
// using a given number of error correction bytes.  An RSEncoder holds
// no scratch state and is safe for concurrent use.
type RSEncoder struct {
	f    *Field
	c    int
	gen  []byte // generator polynomial, highest degree first, monic
	lgen []byte // log of gen[1:]
}

// Gen returns the generator polynomial ∏(x - α^i) for i in [0, e),
// coefficients highest degree first.  The leading coefficient is 1.
func (f *Field) Gen(e int) []byte {
	p := make([]byte, e+1)
	p[0] = 1
	for i := 0; i < e; i++ {
		// p = p * (x + α^i)
		a := f.Exp(i)
		for j := i + 1; j > 0; j-- {
			p[j] ^= f.Mul(p[j-1], a)
		}
	}
	return p
}

// NewRSEncoder returns a new Reed-Solomon encoder
// over the given field and number of error correction bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	gen := f.Gen(c)
	lgen := make([]byte, c)
	for i, v := range gen[1:] {
		// The generator has no zero coefficients, as its roots
		// are distinct powers of α.
		lgen[i] = byte(f.Log(v))
	}
	return &RSEncoder{f: f, c: c, gen: gen, lgen: lgen}
}

// Len returns the number of error correction bytes.
func (rs *RSEncoder) Len() int { return rs.c }

// ECC writes to check the error correcting code bytes
// for data using the given Reed-Solomon parameters.
// check must be at least rs.Len() bytes long.
func (rs *RSEncoder) ECC(data []byte, check []byte) {
	check = check[:rs.c]
	clear(check)
	exp := &rs.f.exp
	// Long division in a shift register: check holds the running
	// remainder of data·x^c divided by the generator.
	for _, v := range data {
		fb := v ^ check[0]
		copy(check, check[1:])
		check[len(check)-1] = 0
		if fb == 0 {
			continue
		}
		lfb := int(rs.f.log[fb])
		for i, lg := range rs.lgen {
			check[i] ^= exp[lfb+int(lg)]
		}
	}
}
