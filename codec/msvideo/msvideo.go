// Package msvideo decodes Microsoft Video 1 (CRAM) frames in both the 8-bit
// palettized and the 16-bit RGB555 variants.  The image is coded as 4x4 blocks
// from the bottom-left; skipped blocks keep the previous frame's pixels.
// 8-bit frames decode to palette indices, 16-bit frames to interleaved RGB.
package msvideo

import (
	"encoding/binary"
	"fmt"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{}, "cram", "msvc", "wham")
}

type Codec struct{}

func (Codec) Name() string { return "msvideo" }

func (Codec) Predictive() bool { return true }

type decoder struct {
	src    []byte
	pos    int
	width  int
	height int
}

func (d *decoder) byte2() (a, b byte, ok bool) {
	if d.pos+2 > len(d.src) {
		return 0, 0, false
	}
	a, b = d.src[d.pos], d.src[d.pos+1]
	d.pos += 2
	return a, b, true
}

func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	if p.Width < 4 || p.Height < 4 {
		return nil, fmt.Errorf("%w: msvideo frame %dx%d", codec.ErrBadParams, p.Width, p.Height)
	}
	d := &decoder{src: src, width: p.Width, height: p.Height}
	switch p.BitsPerSample {
	case 8, 0:
		out := make([]byte, p.Width*p.Height)
		if len(p.Previous) == len(out) {
			copy(out, p.Previous)
		}
		return out, d.decode8(out)
	case 16:
		out := make([]byte, 3*p.Width*p.Height)
		if len(p.Previous) == len(out) {
			copy(out, p.Previous)
		}
		return out, d.decode16(out)
	}
	return nil, fmt.Errorf("%w: msvideo at %d bits", codec.ErrBadParams, p.BitsPerSample)
}

// blocks visits every 4x4 block in coding order, bottom row of blocks first.
// fn receives the top-left pixel of the block; it returns the number of
// following blocks to skip, or an error.
func (d *decoder) blocks(fn func(x, y, remaining int) (int, error)) error {
	wide, high := d.width/4, d.height/4
	total := wide * high
	skip := 0
	for by := high - 1; by >= 0; by-- {
		for bx := 0; bx < wide; bx++ {
			if skip > 0 {
				skip--
				total--
				continue
			}
			n, err := fn(bx*4, by*4, total)
			if err != nil {
				return err
			}
			if n < 0 {
				return nil
			}
			skip = n
			if skip == 0 {
				total--
			} else {
				// the skip code itself covers the current block
				skip--
				total--
			}
		}
	}
	return nil
}

// pixel index of (px, py) within the block at (x, y); py counts up from the
// bottom row of the block.
func (d *decoder) index(x, y, px, py int) int {
	return (y+3-py)*d.width + x + px
}

func (d *decoder) decode8(out []byte) error {
	return d.blocks(func(x, y, remaining int) (int, error) {
		a, b, ok := d.byte2()
		if !ok {
			return 0, fmt.Errorf("msvideo block: %w", codec.ErrTruncated)
		}
		switch {
		case a == 0 && b == 0 && remaining == 0:
			return -1, nil
		case b&0xFC == 0x84:
			return (int(b-0x84) << 8) + int(a), nil
		case b < 0x80:
			if d.pos+2 > len(d.src) {
				return 0, fmt.Errorf("msvideo 2-color block: %w", codec.ErrTruncated)
			}
			colors := d.src[d.pos : d.pos+2]
			d.pos += 2
			flags := uint16(b)<<8 | uint16(a)
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					out[d.index(x, y, px, py)] = colors[(flags&1)^1]
					flags >>= 1
				}
			}
		case b >= 0x90:
			if d.pos+8 > len(d.src) {
				return 0, fmt.Errorf("msvideo 8-color block: %w", codec.ErrTruncated)
			}
			colors := d.src[d.pos : d.pos+8]
			d.pos += 8
			flags := uint16(b)<<8 | uint16(a)
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					out[d.index(x, y, px, py)] = colors[((py&2)<<1)+(px&2)+int((flags&1)^1)]
					flags >>= 1
				}
			}
		default:
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					out[d.index(x, y, px, py)] = a
				}
			}
		}
		return 0, nil
	})
}

func rgb555(out []byte, i int, c uint16) {
	r, g, b := (c>>10)&0x1F, (c>>5)&0x1F, c&0x1F
	out[3*i] = byte(r<<3 | r>>2)
	out[3*i+1] = byte(g<<3 | g>>2)
	out[3*i+2] = byte(b<<3 | b>>2)
}

func (d *decoder) colors16(n int) ([]uint16, error) {
	if d.pos+2*n > len(d.src) {
		return nil, fmt.Errorf("msvideo %d-color block: %w", n, codec.ErrTruncated)
	}
	colors := make([]uint16, n)
	for i := range colors {
		colors[i] = binary.LittleEndian.Uint16(d.src[d.pos:])
		d.pos += 2
	}
	return colors, nil
}

func (d *decoder) decode16(out []byte) error {
	return d.blocks(func(x, y, remaining int) (int, error) {
		a, b, ok := d.byte2()
		if !ok {
			return 0, fmt.Errorf("msvideo block: %w", codec.ErrTruncated)
		}
		switch {
		case a == 0 && b == 0 && remaining == 0:
			return -1, nil
		case b&0xFC == 0x84:
			return (int(b-0x84) << 8) + int(a), nil
		case b < 0x80:
			flags := uint16(b)<<8 | uint16(a)
			colors, err := d.colors16(2)
			if err != nil {
				return 0, err
			}
			if colors[0]&0x8000 != 0 {
				more, err := d.colors16(6)
				if err != nil {
					return 0, err
				}
				colors = append(colors, more...)
				for py := 0; py < 4; py++ {
					for px := 0; px < 4; px++ {
						rgb555(out, d.index(x, y, px, py), colors[((py&2)<<1)+(px&2)+int((flags&1)^1)])
						flags >>= 1
					}
				}
				return 0, nil
			}
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					rgb555(out, d.index(x, y, px, py), colors[(flags&1)^1])
					flags >>= 1
				}
			}
		default:
			c := uint16(b)<<8 | uint16(a)
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					rgb555(out, d.index(x, y, px, py), c)
				}
			}
		}
		return 0, nil
	})
}
