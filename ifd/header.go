package ifd

import (
	"bytes"
	"encoding/binary"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/stream"
)

const (
	// MagicTIFF and MagicBigTIFF follow the byte order mark of a TIFF header.
	MagicTIFF    = 42
	MagicBigTIFF = 43
)

// Header is the leading signature of a directory chain.  Its byte order governs
// every directory of the chain.
type Header struct {
	Order       binary.ByteOrder
	Magic       uint16
	BigTIFF     bool
	FirstOffset int64
}

// ByteOrderMark returns the byte order signaled by the leading "II" or "MM".
func ByteOrderMark(block []byte) (binary.ByteOrder, bool) {
	if len(block) < 2 {
		return nil, false
	}
	switch {
	case block[0] == 'I' && block[1] == 'I':
		return binary.LittleEndian, true
	case block[0] == 'M' && block[1] == 'M':
		return binary.BigEndian, true
	}
	return nil, false
}

// IsHeader reports whether block starts with a byte order mark and one of the given
// magic numbers, MagicTIFF or MagicBigTIFF if none are given.
func IsHeader(block []byte, magics ...uint16) bool {
	order, ok := ByteOrderMark(block)
	if !ok || len(block) < 4 {
		return false
	}
	return magicAllowed(order.Uint16(block[2:4]), magics)
}

func magicAllowed(magic uint16, magics []uint16) bool {
	if len(magics) == 0 {
		magics = []uint16{MagicTIFF, MagicBigTIFF}
	}
	for _, m := range magics {
		if m == magic {
			return true
		}
	}
	return false
}

// ReadHeader decodes the header at the start of the cursor's source and sets the
// cursor's byte order accordingly.  Only the given magic numbers are accepted,
// MagicTIFF and MagicBigTIFF if none are given.  A mismatch is a bio.SignatureError.
func ReadHeader(c *stream.Cursor, magics ...uint16) (Header, error) {
	var hdr Header
	block, err := c.BytesAt(0, 4)
	if err != nil {
		return hdr, &bio.SignatureError{Format: "TIFF", Name: c.Name()}
	}
	order, ok := ByteOrderMark(block)
	if !ok {
		return hdr, &bio.SignatureError{Format: "TIFF", Name: c.Name()}
	}
	hdr.Order = order
	hdr.Magic = order.Uint16(block[2:4])
	if !magicAllowed(hdr.Magic, magics) {
		return hdr, &bio.SignatureError{Format: "TIFF", Name: c.Name()}
	}
	c.SetOrder(order)
	if hdr.Magic == MagicBigTIFF {
		hdr.BigTIFF = true
		bytesize, err := c.Uint16At(4)
		if err != nil {
			return hdr, err
		}
		if bytesize != 8 {
			return hdr, bio.NewDecodeError(c.Name(), 4, "BigTIFF offset size %d, expected 8", bytesize)
		}
		first, err := c.Uint64At(8)
		if err != nil {
			return hdr, err
		}
		hdr.FirstOffset = int64(first)
	} else {
		first, err := c.Uint32At(4)
		if err != nil {
			return hdr, err
		}
		hdr.FirstOffset = int64(first)
	}
	if hdr.FirstOffset < 8 || hdr.FirstOffset >= c.Size() {
		return hdr, bio.NewDecodeError(c.Name(), 4, "first directory offset %d outside file", hdr.FirstOffset)
	}
	return hdr, nil
}

// Chunk is a container element introduced by a 4-character id and a length,
// e.g., a RIFF chunk.  Lists additionally carry a 4-character form type.
type Chunk struct {
	ID     string
	Size   int64
	Form   string // set for RIFF and LIST chunks
	Offset int64  // start of the chunk data, after any form type
}

// End returns the offset following the chunk data, including any pad byte.
func (ch Chunk) End() int64 {
	data := ch.Offset + ch.Size
	if ch.Form != "" {
		data -= 4
	}
	if data%2 == 1 {
		data++
	}
	return data
}

// IsContainer reports whether block starts with the given 4-character id and,
// when form is not empty, carries that form type after the length.
func IsContainer(block []byte, id, form string) bool {
	if len(block) < 4 || !bytes.Equal(block[:4], []byte(id)) {
		return false
	}
	if form == "" {
		return true
	}
	return len(block) >= 12 && string(block[8:12]) == form
}

// ReadChunk decodes a chunk header at the cursor position using the cursor's byte
// order and leaves the cursor at the start of the chunk data.
func ReadChunk(c *stream.Cursor) (Chunk, error) {
	var ch Chunk
	start := c.Offset()
	id, err := c.ReadFull(4)
	if err != nil {
		return ch, err
	}
	size, err := c.ReadUint32()
	if err != nil {
		return ch, err
	}
	ch.ID = string(id)
	ch.Size = int64(size)
	if ch.ID == "RIFF" || ch.ID == "LIST" || ch.ID == "FORM" {
		form, err := c.ReadFull(4)
		if err != nil {
			return ch, err
		}
		ch.Form = string(form)
	}
	ch.Offset = c.Offset()
	if start+8+ch.Size > c.Size() {
		return ch, bio.NewDecodeError(c.Name(), start, "%q chunk of %d bytes runs past end of file", ch.ID, ch.Size)
	}
	return ch, nil
}
