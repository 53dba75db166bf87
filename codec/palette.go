package codec

import "fmt"

// Palette is a three channel lookup table indexed by pixel value.
type Palette struct {
	R, G, B []byte
}

// NewPalette returns a palette of n black entries.
func NewPalette(n int) *Palette {
	return &Palette{R: make([]byte, n), G: make([]byte, n), B: make([]byte, n)}
}

// PaletteFrom16 builds a palette from 16-bit TIFF-style color maps, keeping the
// high byte of each value.
func PaletteFrom16(colormap []uint64) (*Palette, error) {
	if len(colormap) == 0 || len(colormap)%3 != 0 {
		return nil, fmt.Errorf("color map length %d is not a positive multiple of 3", len(colormap))
	}
	n := len(colormap) / 3
	p := NewPalette(n)
	for i := 0; i < n; i++ {
		p.R[i] = byte(colormap[i] >> 8)
		p.G[i] = byte(colormap[n+i] >> 8)
		p.B[i] = byte(colormap[2*n+i] >> 8)
	}
	return p, nil
}

func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.R)
}

// Apply expands 8-bit indices to interleaved RGB triples.  Indices past the end of
// the palette map to black.
func (p *Palette) Apply(indices []byte) []byte {
	out := make([]byte, 3*len(indices))
	n := p.Len()
	for i, v := range indices {
		if int(v) >= n {
			continue
		}
		out[3*i] = p.R[v]
		out[3*i+1] = p.G[v]
		out[3*i+2] = p.B[v]
	}
	return out
}

// Table returns the palette as [3][]byte in R, G, B order.
func (p *Palette) Table() [3][]byte {
	return [3][]byte{p.R, p.G, p.B}
}
