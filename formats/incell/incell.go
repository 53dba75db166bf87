// Package incell reads single-field InCell 3000 .frm files.
//
// Pixels are 16-bit values in a simple run scheme: a word up to 32768 is a
// literal pixel, a larger word n starts a run of n-32768 pixels given as a base
// value followed by 5-bit offsets, three to a word.
package incell

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	"github.com/blang/semver"
)

const (
	Version = "0.1.0"
	Name    = "InCell 3000"

	headerBytes = 29
	runFlag     = 32768
)

// Handler returns the registry entry for this reader.
func Handler() format.Handler {
	return format.Handler{
		Name:    Name,
		Version: semver.MustParse(Version),
		New:     func() format.Reader { return New() },
	}
}

// Header is the fixed little-endian header of a .frm file.
type Header struct {
	PixelsOffset      int64
	Width             int
	Lines             int
	ComponentType     uint8
	Timestamp         int32
	Auxiliary         int32
	RelativeTimestamp int32
	ZSection          float32
	ComponentBytes    int32
}

// Height returns the image height.  The line count is p*(height+1), where p is
// the line count modulo 32.
func (h Header) Height() int {
	planes := h.Lines % 32
	if planes == 0 {
		return h.Lines
	}
	return (h.Lines - planes) / planes
}

func readHeader(c *stream.Cursor) (Header, error) {
	var h Header
	raw, err := c.BytesAt(0, headerBytes)
	if err != nil {
		return h, err
	}
	le := binary.LittleEndian
	h.PixelsOffset = int64(le.Uint16(raw[0:]))
	h.Width = int(le.Uint16(raw[2:]))
	h.Lines = int(le.Uint16(raw[4:]))
	h.ComponentType = raw[6]
	h.Timestamp = int32(le.Uint32(raw[8:]))
	h.Auxiliary = int32(le.Uint32(raw[12:]))
	h.RelativeTimestamp = int32(le.Uint32(raw[16:]))
	h.ZSection = math.Float32frombits(le.Uint32(raw[20:]))
	h.ComponentBytes = int32(le.Uint32(raw[24:]))
	if h.Width < 1 || h.Height() < 1 {
		return h, bio.NewDecodeError(c.Name(), 2, "bad image size %dx%d", h.Width, h.Height())
	}
	if h.PixelsOffset < headerBytes || h.PixelsOffset >= c.Size() {
		return h, bio.NewDecodeError(c.Name(), 0, "pixel offset %d outside file", h.PixelsOffset)
	}
	return h, nil
}

// Unpack decodes n pixels from src into little-endian 16-bit samples.
func Unpack(src []byte, n int) ([]byte, error) {
	out := make([]byte, 0, 2*n)
	pos := 0
	word := func() (uint16, bool) {
		if pos+2 > len(src) {
			return 0, false
		}
		v := binary.LittleEndian.Uint16(src[pos:])
		pos += 2
		return v, true
	}
	put := func(v uint16) {
		out = append(out, byte(v), byte(v>>8))
	}
	for len(out) < 2*n {
		v, ok := word()
		if !ok {
			return nil, fmt.Errorf("frm pixels: %w after %d of %d", codec.ErrTruncated, len(out)/2, n)
		}
		if v <= runFlag {
			put(v)
			continue
		}
		count := int(v - runFlag)
		base, ok := word()
		if !ok {
			return nil, fmt.Errorf("frm run base: %w", codec.ErrTruncated)
		}
		packed := (count + 2) / 3
		if pos+2*packed > len(src) {
			return nil, fmt.Errorf("frm run of %d: %w", count, codec.ErrTruncated)
		}
		for i := 0; i < count && len(out) < 2*n; i++ {
			offsets := binary.LittleEndian.Uint16(src[pos+2*(i/3):])
			// third offset sits at bit 10, not reusing the bit 5 field
			put(base + (offsets>>(5*uint(i%3)))&31)
		}
		pos += 2 * packed
	}
	return out, nil
}

// Reader is an InCell 3000 format handler.
type Reader struct {
	format.Base

	header Header
	plane  []byte
}

func New() *Reader {
	return &Reader{Base: format.NewBase(Name, "frm")}
}

func (r *Reader) Open(id string) error {
	if r.Begin(id) {
		return nil
	}
	r.header, r.plane = Header{}, nil
	c, err := r.OpenCursor(id)
	if err != nil {
		return err
	}
	h, err := readHeader(c)
	if err != nil {
		r.Close(false)
		return err
	}
	r.header = h
	r.AddSeries(bio.SeriesDescriptor{
		SizeX:          h.Width,
		SizeY:          h.Height(),
		PixelType:      bio.Uint16,
		DimensionOrder: bio.OrderXYCZT,
		LittleEndian:   true,
	})

	r.AddGlobal("Component type", h.ComponentType)
	r.AddGlobal("Timestamp", h.Timestamp)
	r.AddGlobal("Auxiliary", h.Auxiliary)
	r.AddGlobal("Relative timestamp", h.RelativeTimestamp)
	r.AddGlobal("Z section", h.ZSection)
	r.AddGlobal("Component bytes", h.ComponentBytes)

	store := r.Store()
	store.SetImageName(0, filepath.Base(id))
	if r.Level() != meta.LevelMinimum {
		store.SetPlanePosition(0, 0, 0, 0, float64(h.ZSection))
	}
	return r.Initialized(id)
}

func (r *Reader) Close(fileOnly bool) error {
	if !fileOnly {
		r.header, r.plane = Header{}, nil
	}
	return r.Base.Close(fileOnly)
}

func (r *Reader) Duplicate() (format.Reader, error) {
	return format.Reopen(r, New())
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if err := r.CheckRegion(no, x, y, w, h); err != nil {
		return nil, err
	}
	d := r.Descriptor()
	if r.plane == nil {
		c, err := r.Cursor()
		if err != nil {
			return nil, err
		}
		src, err := c.BytesAt(r.header.PixelsOffset, int(c.Size()-r.header.PixelsOffset))
		if err != nil {
			return nil, err
		}
		plane, err := Unpack(src, d.SizeX*d.SizeY)
		if err != nil {
			return nil, bio.WrapDecodeError(r.CurrentFile(), r.header.PixelsOffset, err)
		}
		r.plane = plane
	}
	return bio.CopyRegion(r.plane, d.SizeX, 2, x, y, w, h), nil
}
