// Package msrle decodes Microsoft run-length encoded 8-bit bitmaps (BI_RLE8), as
// found in AVI files.  Rows are stored bottom-up; decoded planes are top-down.
// Pixels a frame does not touch keep the value of the previous frame.
package msrle

import (
	"fmt"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{}, "mrle", "rle8")
}

type Codec struct{}

func (Codec) Name() string { return "msrle" }

func (Codec) Predictive() bool { return true }

// Decode expands an RLE8 stream into width*height indices.
//
// The stream is a sequence of byte pairs.  A pair (n, v) with n > 0 repeats v n
// times.  A pair (0, e) is an escape: e=0 ends the line, e=1 ends the bitmap,
// e=2 is followed by a (dx, dy) jump, and e>=3 is followed by e literal bytes
// padded to an even count.
func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	if p.Width < 1 || p.Height < 1 || (p.BitsPerSample != 0 && p.BitsPerSample != 8) {
		return nil, fmt.Errorf("%w: msrle %dx%d at %d bits", codec.ErrBadParams, p.Width, p.Height, p.BitsPerSample)
	}
	size := p.Width * p.Height
	out := make([]byte, size)
	if len(p.Previous) == size {
		copy(out, p.Previous)
	}

	row := p.Height - 1
	x := 0
	put := func(v byte) {
		if row >= 0 && x < p.Width {
			out[row*p.Width+x] = v
		}
		x++
	}
	pos := 0
	for row >= 0 {
		if pos+1 >= len(src) {
			// Some encoders omit the end-of-bitmap marker.
			return out, nil
		}
		n, v := src[pos], src[pos+1]
		pos += 2
		if n > 0 {
			for i := 0; i < int(n); i++ {
				put(v)
			}
			continue
		}
		switch v {
		case 0:
			row--
			x = 0
		case 1:
			return out, nil
		case 2:
			if pos+1 >= len(src) {
				return nil, fmt.Errorf("msrle delta: %w", codec.ErrTruncated)
			}
			x += int(src[pos])
			row -= int(src[pos+1])
			pos += 2
		default:
			count := int(v)
			if pos+count > len(src) {
				return nil, fmt.Errorf("msrle literal run of %d: %w", count, codec.ErrTruncated)
			}
			for _, b := range src[pos : pos+count] {
				put(b)
			}
			pos += count
			if count%2 == 1 {
				pos++
			}
		}
	}
	return out, nil
}
