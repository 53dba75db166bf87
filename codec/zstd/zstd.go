// Package zstd decodes Zstandard compressed pixel data (TIFF compression 50000).
package zstd

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/janelia-flyem/bioio/codec"
)

func init() {
	codec.Register(Codec{}, "zstandard")
}

var (
	once    sync.Once
	decoder *zstd.Decoder
	initErr error
)

type Codec struct{}

func (Codec) Name() string { return "zstd" }

func (Codec) Decode(src []byte, p codec.Params) ([]byte, error) {
	once.Do(func() {
		decoder, initErr = zstd.NewReader(nil)
	})
	if initErr != nil {
		return nil, initErr
	}
	limit := p.MaxBytes
	if limit <= 0 {
		limit = p.PlaneBytes()
	}
	out, err := decoder.DecodeAll(src, make([]byte, 0, limit))
	if err != nil {
		return nil, err
	}
	if len(out) < limit {
		return nil, fmt.Errorf("zstd produced %d of %d bytes: %w", len(out), limit, codec.ErrTruncated)
	}
	return out[:limit], nil
}
