// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Qrgen encodes text as a QR code and writes it as SVG, PNG, PBM or
// text.
package main

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"

	"github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/coding"
)

var g = struct {
	unit   float64  // pixels per module
	margin int      // quiet zone
	fn     string   // filename
	lev    qr.Level // QR correction level
	ver    qr.Version
	mode   qr.Mode
	format int  // output file format
	bg, fg rgba // colour
	upper  bool // uppercase
	clip   bool // copy SVG to clipboard
	debug  bool // diagnostics
}{
	unit:   4,
	margin: qr.DefaultBorder,
	bg:     rgba{0xff, 0xff, 0xff, 0xff},
	fg:     rgba{0x00, 0x00, 0x00, 0xff},
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	prog := cl.Program()
	fmt.Fprint(w, "QR code generator\nUsage: ", prog, " ",
		cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.

`)
	cl.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qrgen version 0.1.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2024 Vadim Vygonets`)
	os.Exit(0)
}

type rgba struct {
	R, G, B, A uint8
}

func (c *rgba) String() string {
	if *c == (rgba{0x00, 0x00, 0x00, 0xff}) {
		return "black"
	} else if *c == (rgba{0xff, 0xff, 0xff, 0xff}) {
		return "white"
	} else if c.A == 0xff {
		return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
	} else {
		return fmt.Sprintf("%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	}
}

// Set parses an SVG colour name or 3, 4, 6 or 8 hex digits.
func (c *rgba) Set(s string, _ getopt.Option) error {
	name := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if v, ok := colornames.Map[name]; ok {
		*c = rgba(v)
		return nil
	}
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("%q: bad colour spec", s)
	}
	switch len(s) {
	case 3:
		n = n<<4 | 0xf
		fallthrough
	case 4:
		var nn uint64
		for i := 0; i < 4; i++ {
			nn <<= 8
			nn |= n >> 12 & 0xf * 0x11
			n <<= 4
		}
		n = nn
	case 6:
		n = n<<8 | 0xff
	case 8:
	default:
		return fmt.Errorf("%q: bad colour spec", s)
	}
	c.R, c.G, c.B, c.A = uint8(n>>24), uint8(n>>16), uint8(n>>8), uint8(n)
	return nil
}

// nrgba returns c as a non-premultiplied colour.
func (c rgba) nrgba() color.Color { return color.NRGBA(c) }

var formats = []string{"svg", "png", "pbm", "utf8", "ascii"}

var encoders = [...]func(*qr.Code, *qr.Vector, io.Writer) error{
	func(_ *qr.Code, v *qr.Vector, w io.Writer) error { return v.EncodeSVG(w) },
	func(_ *qr.Code, v *qr.Vector, w io.Writer) error { return v.EncodePNG(w) },
	func(c *qr.Code, _ *qr.Vector, w io.Writer) error { return c.EncodePBM(w) },
	func(c *qr.Code, _ *qr.Vector, w io.Writer) error {
		_, err := fmt.Fprint(w, c)
		return err
	},
	ascii,
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or SVG colour name; `+
		`only for types svg and png`, "RGB[A]|name")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.clip, 'c', `copy the SVG image to the clipboard`)
	getopt.Flag(&g.debug, 'd', `log encoding diagnostics`)
	getopt.Flag(&g.margin, 'm', `quiet zone modules`, "margin")
	getopt.Flag(&g.unit, 's', `image pixels per QR module; `+
		`rounded for type pbm, ignored for types utf8 and ascii`, "unit")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	ver := getopt.Unsigned('v', 0, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 0, Max: 40},
		"QR code version, 0 for the smallest fitting", "ver")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "m",
		"error correction level, lowest to highest", "l|m|q|h")
	mode := getopt.Enum('M',
		[]string{"auto", "numeric", "alphanumeric", "byte", "latin1"},
		"auto", "segment mode; latin1 converts UTF-8 input", "mode")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise svg`, "type")

	getopt.Parse()
	if g.margin < 0 || !(g.unit > 0) || math.IsInf(g.unit, 0) {
		fmt.Fprintln(os.Stderr, "-m must be non-negative, -s positive")
		usage()
	}
	g.ver = qr.Version(*ver)
	g.lev = qr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	var err error
	if g.mode, err = qr.ParseMode(*mode); err != nil {
		log.Fatalln(err)
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(os.Stdout.Fd()) {
			*ff = "utf8"
		} else {
			*ff = "svg"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

// newLogger returns a development logger if diagnostics are enabled.
func newLogger() *zap.SugaredLogger {
	if !g.debug {
		return zap.NewNop().Sugar()
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalln(err)
	}
	return zl.Sugar()
}

func main() {
	log.SetFlags(0)
	parseFlags()
	logger := newLogger()
	defer logger.Sync()

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.upper {
		s = strings.ToUpper(s)
	}

	c, err := qr.EncodeWith(s, &qr.Options{
		Level:   g.lev,
		Version: g.ver,
		Mode:    g.mode,
	})
	if err != nil {
		log.Fatalln(err)
	}
	p := c.Penalties()
	logger.Debugw("encoded",
		"bytes", len(s),
		"version", c.Version,
		"level", c.Level,
		"mask", c.Mask,
		"penalty", c.Penalty(),
		coding.RunRule.String(), p[coding.RunRule],
		coding.BoxRule.String(), p[coding.BoxRule],
		coding.FinderRule.String(), p[coding.FinderRule],
		coding.BalanceRule.String(), p[coding.BalanceRule],
	)

	c.Border = g.margin
	c.Scale = max(int(math.Round(g.unit)), 1)
	v, err := c.Render(g.unit, g.margin, g.fg.nrgba(), g.bg.nrgba())
	if err != nil {
		log.Fatalln(err)
	}
	logger.Debugw("rendered", "width", v.Width, "height", v.Height,
		"runs", len(v.Rects), "format", formats[g.format])

	if g.clip {
		if err := clipboard.WriteAll(v.SVG()); err != nil {
			log.Fatalln(err)
		}
		logger.Debug("copied to clipboard")
	}
	write(c, v)
}

func write(c *qr.Code, v *qr.Vector) {
	var w = os.Stdout
	open := g.fn != ""
	if open {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	err := encoders[g.format](c, v, w)
	if open && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func ascii(c *qr.Code, _ *qr.Vector, w io.Writer) error {
	siz := c.Size
	bord := c.Border
	pix := siz + 2*bord
	var b bytes.Buffer
	b.Grow((pix*2 + 1) * pix)
	for y := -bord; y < siz+bord; y++ {
		for x := -bord; x < siz+bord; x++ {
			if c.Black(x, y) {
				b.WriteString("##")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	_, err := b.WriteTo(w)
	return err
}
