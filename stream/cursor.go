package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/janelia-flyem/bioio/bio"
)

// Cursor reads typed values from a Source.  Sequential reads advance the position;
// the *At reads address absolute offsets and leave the position alone.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	src   Source
	pos   int64
	order binary.ByteOrder
	buf   [8]byte
}

// NewCursor returns a little-endian Cursor positioned at the start of src.
func NewCursor(src Source) *Cursor {
	return &Cursor{src: src, order: binary.LittleEndian}
}

func (c *Cursor) Source() Source { return c.src }
func (c *Cursor) Name() string   { return c.src.Name() }
func (c *Cursor) Size() int64    { return c.src.Size() }
func (c *Cursor) Offset() int64  { return c.pos }

func (c *Cursor) Order() binary.ByteOrder { return c.order }

func (c *Cursor) SetOrder(order binary.ByteOrder) {
	c.order = order
}

func (c *Cursor) LittleEndian() bool {
	return c.order == binary.LittleEndian
}

func (c *Cursor) SetLittleEndian(little bool) {
	if little {
		c.order = binary.LittleEndian
	} else {
		c.order = binary.BigEndian
	}
}

// Seek moves the position to an absolute offset, which may equal but not exceed Size.
func (c *Cursor) Seek(offset int64) error {
	if offset < 0 || offset > c.src.Size() {
		return bio.NewDecodeError(c.src.Name(), offset, "seek beyond end of %d-byte file", c.src.Size())
	}
	c.pos = offset
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int64) error {
	return c.Seek(c.pos + n)
}

// Mark returns a function that restores the current position and byte order.
func (c *Cursor) Mark() func() {
	pos, order := c.pos, c.order
	return func() {
		c.pos, c.order = pos, order
	}
}

// Remaining returns the number of bytes after the current position.
func (c *Cursor) Remaining() int64 {
	return c.src.Size() - c.pos
}

func (c *Cursor) readAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > c.src.Size() {
		return bio.WrapDecodeError(c.src.Name(), off,
			fmt.Errorf("read of %d bytes past end of %d-byte file: %w", len(p), c.src.Size(), io.ErrUnexpectedEOF))
	}
	n, err := c.src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return bio.WrapDecodeError(c.src.Name(), off, err)
}

// Read implements io.Reader at the current position.
func (c *Cursor) Read(p []byte) (int, error) {
	remain := c.Remaining()
	if remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remain {
		p = p[:remain]
	}
	if err := c.readAt(p, c.pos); err != nil {
		return 0, err
	}
	c.pos += int64(len(p))
	return len(p), nil
}

// ReadFull reads exactly n bytes at the current position.
func (c *Cursor) ReadFull(n int) ([]byte, error) {
	if n < 0 {
		return nil, bio.NewDecodeError(c.src.Name(), c.pos, "negative read length %d", n)
	}
	p := make([]byte, n)
	if err := c.readAt(p, c.pos); err != nil {
		return nil, err
	}
	c.pos += int64(n)
	return p, nil
}

func (c *Cursor) next(n int) ([]byte, error) {
	p := c.buf[:n]
	if err := c.readAt(p, c.pos); err != nil {
		return nil, err
	}
	c.pos += int64(n)
	return p, nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	p, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.ReadUint8()
	return int8(v), err
}

func (c *Cursor) ReadUint16() (uint16, error) {
	p, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(p), nil
}

func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Cursor) ReadUint32() (uint32, error) {
	p, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(p), nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Cursor) ReadUint64() (uint64, error) {
	p, err := c.next(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(p), nil
}

func (c *Cursor) ReadInt64() (int64, error) {
	v, err := c.ReadUint64()
	return int64(v), err
}

func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadFloat64() (float64, error) {
	v, err := c.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadString reads n bytes and returns them up to the first NUL.
func (c *Cursor) ReadString(n int) (string, error) {
	p, err := c.ReadFull(n)
	if err != nil {
		return "", err
	}
	for i, b := range p {
		if b == 0 {
			return string(p[:i]), nil
		}
	}
	return string(p), nil
}

// BytesAt reads n bytes at an absolute offset.
func (c *Cursor) BytesAt(offset int64, n int) ([]byte, error) {
	if n < 0 {
		return nil, bio.NewDecodeError(c.src.Name(), offset, "negative read length %d", n)
	}
	p := make([]byte, n)
	if err := c.readAt(p, offset); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Cursor) Uint16At(offset int64) (uint16, error) {
	var p [2]byte
	if err := c.readAt(p[:], offset); err != nil {
		return 0, err
	}
	return c.order.Uint16(p[:]), nil
}

func (c *Cursor) Uint32At(offset int64) (uint32, error) {
	var p [4]byte
	if err := c.readAt(p[:], offset); err != nil {
		return 0, err
	}
	return c.order.Uint32(p[:]), nil
}

func (c *Cursor) Uint64At(offset int64) (uint64, error) {
	var p [8]byte
	if err := c.readAt(p[:], offset); err != nil {
		return 0, err
	}
	return c.order.Uint64(p[:]), nil
}

// Close closes the underlying source.
func (c *Cursor) Close() error {
	return c.src.Close()
}
