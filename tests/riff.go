package tests

import "encoding/binary"

// Chunk is a RIFF element.  Chunks with a Form are lists whose body is the
// concatenation of their Children.
type Chunk struct {
	ID       string
	Form     string
	Data     []byte
	Children []Chunk
}

// Bytes returns the little-endian encoding of the chunk, padded to an even length.
func (ch Chunk) Bytes() []byte {
	body := ch.Data
	if ch.Form != "" {
		body = []byte(ch.Form)
		for _, child := range ch.Children {
			body = append(body, child.Bytes()...)
		}
	}
	out := make([]byte, 8, 8+len(body)+1)
	copy(out, ch.ID)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// LE returns the little-endian bytes of the given 32-bit values.
func LE(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}

// LE16 returns the little-endian bytes of the given 16-bit values.
func LE16(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out
}
