package tests

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TIFF value types used by the builder.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeUndefined = 7
	TypeDouble    = 12
	TypeLong8     = 16
)

// TIFFEntry is a directory entry to be written.  Values must be one of []uint8,
// string, []uint16, []uint32, []uint64, [][2]uint32 or []float64, matching Type.
type TIFFEntry struct {
	Tag    uint16
	Type   uint16
	Values interface{}
}

func Shorts(tag uint16, vals ...uint16) TIFFEntry { return TIFFEntry{tag, TypeShort, vals} }
func Longs(tag uint16, vals ...uint32) TIFFEntry  { return TIFFEntry{tag, TypeLong, vals} }
func Long8s(tag uint16, vals ...uint64) TIFFEntry { return TIFFEntry{tag, TypeLong8, vals} }
func Text(tag uint16, s string) TIFFEntry         { return TIFFEntry{tag, TypeASCII, s} }
func Bytes(tag uint16, b []byte) TIFFEntry        { return TIFFEntry{tag, TypeByte, b} }

func Rationals(tag uint16, vals ...[2]uint32) TIFFEntry {
	return TIFFEntry{tag, TypeRational, vals}
}

func (e TIFFEntry) encode(order binary.ByteOrder) (count int, data []byte) {
	switch v := e.Values.(type) {
	case []uint8:
		return len(v), v
	case string:
		data = append([]byte(v), 0)
		return len(data), data
	case []uint16:
		data = make([]byte, 2*len(v))
		for i, x := range v {
			order.PutUint16(data[2*i:], x)
		}
		return len(v), data
	case []uint32:
		data = make([]byte, 4*len(v))
		for i, x := range v {
			order.PutUint32(data[4*i:], x)
		}
		return len(v), data
	case []uint64:
		data = make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint64(data[8*i:], x)
		}
		return len(v), data
	case [][2]uint32:
		data = make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint32(data[8*i:], x[0])
			order.PutUint32(data[8*i+4:], x[1])
		}
		return len(v), data
	case []float64:
		data = make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint64(data[8*i:], math.Float64bits(x))
		}
		return len(v), data
	}
	panic(fmt.Sprintf("unsupported TIFF entry values %T", e.Values))
}

// TIFFBuilder lays out a TIFF file: header, then blobs such as strip data, then
// each directory followed by its out-of-line values.
type TIFFBuilder struct {
	Order   binary.ByteOrder
	BigTIFF bool

	// Magic overrides the header magic number when not zero.
	Magic uint16

	// Loops makes directory i point back to directory j instead of i+1.
	Loops map[int]int

	// RawNext sets the next offset of directory i to an arbitrary value.
	RawNext map[int]int64

	blobs []byte
	dirs  [][]TIFFEntry
}

func NewTIFFBuilder(order binary.ByteOrder, bigTIFF bool) *TIFFBuilder {
	return &TIFFBuilder{Order: order, BigTIFF: bigTIFF}
}

func (b *TIFFBuilder) headerSize() int64 {
	if b.BigTIFF {
		return 16
	}
	return 8
}

// AddBlob appends data after the header and returns its file offset.
func (b *TIFFBuilder) AddBlob(data []byte) int64 {
	off := b.headerSize() + int64(len(b.blobs))
	b.blobs = append(b.blobs, data...)
	if len(b.blobs)%2 == 1 {
		b.blobs = append(b.blobs, 0)
	}
	return off
}

// AddDirectory appends a directory and returns its index.
func (b *TIFFBuilder) AddDirectory(entries ...TIFFEntry) int {
	b.dirs = append(b.dirs, entries)
	return len(b.dirs) - 1
}

func (b *TIFFBuilder) putOffset(buf []byte, at int, v int64) {
	if b.BigTIFF {
		b.Order.PutUint64(buf[at:], uint64(v))
	} else {
		b.Order.PutUint32(buf[at:], uint32(v))
	}
}

// Bytes returns the file contents and the offset of each directory.
func (b *TIFFBuilder) Bytes() ([]byte, []int64) {
	buf := make([]byte, b.headerSize())
	if b.Order == binary.LittleEndian {
		buf[0], buf[1] = 'I', 'I'
	} else {
		buf[0], buf[1] = 'M', 'M'
	}
	magic := b.Magic
	if magic == 0 {
		magic = 42
		if b.BigTIFF {
			magic = 43
		}
	}
	b.Order.PutUint16(buf[2:], magic)
	if b.BigTIFF {
		b.Order.PutUint16(buf[4:], 8)
	}
	buf = append(buf, b.blobs...)

	countSize, entrySize, slotSize := 2, 12, 4
	if b.BigTIFF {
		countSize, entrySize, slotSize = 8, 20, 8
	}
	offsets := make([]int64, len(b.dirs))
	nextAt := make([]int, len(b.dirs))
	for i, entries := range b.dirs {
		if len(buf)%2 == 1 {
			buf = append(buf, 0)
		}
		offsets[i] = int64(len(buf))
		table := make([]byte, countSize+len(entries)*entrySize+slotSize)
		if b.BigTIFF {
			b.Order.PutUint64(table, uint64(len(entries)))
		} else {
			b.Order.PutUint16(table, uint16(len(entries)))
		}
		var extra []byte
		extraStart := int(offsets[i]) + len(table)
		for j, e := range entries {
			p := table[countSize+j*entrySize:]
			count, data := e.encode(b.Order)
			b.Order.PutUint16(p[0:], e.Tag)
			b.Order.PutUint16(p[2:], e.Type)
			slot := p[8:12]
			if b.BigTIFF {
				b.Order.PutUint64(p[4:], uint64(count))
				slot = p[12:20]
			} else {
				b.Order.PutUint32(p[4:], uint32(count))
			}
			if len(data) <= slotSize {
				copy(slot, data)
				continue
			}
			if len(extra)%2 == 1 {
				extra = append(extra, 0)
			}
			off := int64(extraStart + len(extra))
			if b.BigTIFF {
				b.Order.PutUint64(slot, uint64(off))
			} else {
				b.Order.PutUint32(slot, uint32(off))
			}
			extra = append(extra, data...)
		}
		nextAt[i] = int(offsets[i]) + len(table) - slotSize
		buf = append(buf, table...)
		buf = append(buf, extra...)
	}
	if len(offsets) > 0 {
		b.putOffset(buf, int(b.headerSize())-slotSize, offsets[0])
	}
	for i := range b.dirs {
		var next int64
		if i+1 < len(offsets) {
			next = offsets[i+1]
		}
		if j, found := b.Loops[i]; found {
			next = offsets[j]
		}
		if raw, found := b.RawNext[i]; found {
			next = raw
		}
		b.putOffset(buf, nextAt[i], next)
	}
	return buf, offsets
}
