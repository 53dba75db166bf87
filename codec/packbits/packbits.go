// Package packbits decodes Apple PackBits run-length data (TIFF compression 32773).
package packbits

import (
	"fmt"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{})
}

type Codec struct{}

func (Codec) Name() string { return "packbits" }

// Decode expands runs until the plane size implied by p is reached.  A header
// byte n in [0,127] copies n+1 literal bytes, n in [-127,-1] repeats the next
// byte 1-n times, and -128 is a no-op.
func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = p.PlaneBytes()
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: packbits needs an output size", codec.ErrBadParams)
	}
	out := make([]byte, 0, limit)
	pos := 0
	for len(out) < limit && pos < len(src) {
		n := int(int8(src[pos]))
		pos++
		switch {
		case n >= 0:
			count := n + 1
			if pos+count > len(src) {
				return nil, fmt.Errorf("packbits literal of %d: %w", count, codec.ErrTruncated)
			}
			out = append(out, src[pos:pos+count]...)
			pos += count
		case n != -128:
			if pos >= len(src) {
				return nil, fmt.Errorf("packbits run: %w", codec.ErrTruncated)
			}
			v := src[pos]
			pos++
			for i := 0; i < 1-n; i++ {
				out = append(out, v)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
