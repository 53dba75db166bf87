// Package lzw decodes TIFF-flavored LZW data (TIFF compression 5).
package lzw

import (
	"bytes"
	"fmt"
	"io"

	xlzw "golang.org/x/image/tiff/lzw"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{})
}

type Codec struct{}

func (Codec) Name() string { return "lzw" }

func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	r := xlzw.NewReader(bytes.NewReader(src), xlzw.MSB, 8)
	defer r.Close()
	return readLimited(r, p)
}

// readLimited reads up to the plane size implied by p.  Short output is an error;
// encoders commonly leave trailing bytes which are ignored.
func readLimited(r io.Reader, p codec.Params) ([]byte, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = p.PlaneBytes()
	}
	out := make([]byte, limit)
	n, err := io.ReadFull(r, out)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return nil, fmt.Errorf("lzw produced %d of %d bytes: %w", n, limit, codec.ErrTruncated)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
