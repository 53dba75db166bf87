// Package deflate decodes zlib-wrapped Deflate data (TIFF compression 8 and 32946).
package deflate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{}, "zlib", "adobe-deflate")
}

type Codec struct{}

func (Codec) Name() string { return "deflate" }

func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("deflate header: %v", err)
	}
	defer zr.Close()
	limit := p.MaxBytes
	if limit <= 0 {
		limit = p.PlaneBytes()
	}
	out := make([]byte, limit)
	n, err := io.ReadFull(zr, out)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return nil, fmt.Errorf("deflate produced %d of %d bytes: %w", n, limit, codec.ErrTruncated)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
