// Package v3draw reads V3D raw image stacks as written by Vaa3D.
//
// A file is a header followed by uncompressed samples stored channel by
// channel, each channel a Z stack of XY planes:
//
//	"raw_image_stack_by_hpeng"   24 bytes
//	'L' or 'B'                   byte order of the rest of the file
//	data type                    uint16: 1 (uint8), 2 (uint16) or 4 (float32)
//	width, height, depth, nc     uint32 each, or uint16 each in older files
package v3draw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	"github.com/blang/semver"
)

const (
	Version = "0.1.0"
	Name    = "V3D Raw"

	// Magic starts every file.
	Magic = "raw_image_stack_by_hpeng"
)

// Handler returns the registry entry for this reader.
func Handler() format.Handler {
	return format.Handler{
		Name:    Name,
		Version: semver.MustParse(Version),
		New:     func() format.Reader { return New() },
	}
}

// Header is the decoded V3D raw header.
type Header struct {
	Order    binary.ByteOrder
	DataType uint16
	Width    int
	Height   int
	Depth    int
	Channels int

	// Size is the header length in bytes, 43 with 32-bit sizes and 35 with
	// 16-bit sizes.
	Size int64
}

func (h Header) pixelType() (bio.PixelType, error) {
	switch h.DataType {
	case 1:
		return bio.Uint8, nil
	case 2:
		return bio.Uint16, nil
	case 4:
		return bio.Float32, nil
	}
	return 0, fmt.Errorf("%w: V3D raw data type %d", bio.ErrUnsupported, h.DataType)
}

// MaxDimension bounds each stack size read from a header.
const MaxDimension = 1 << 24

// dataBytes returns the expected size of the samples following the header, or
// math.MaxInt64 if that does not fit.
func (h Header) dataBytes() int64 {
	n := int64(h.DataType)
	for _, d := range [4]int{h.Width, h.Height, h.Depth, h.Channels} {
		if d < 0 || (d > 0 && n > math.MaxInt64/int64(d)) {
			return math.MaxInt64
		}
		n *= int64(d)
	}
	return n
}

// ReadHeader decodes the header at the start of c.  Files whose size only
// matches 16-bit dimensions are read with those.
func ReadHeader(c *stream.Cursor) (Header, error) {
	var h Header
	if err := c.Seek(0); err != nil {
		return h, err
	}
	magic, err := c.ReadFull(len(Magic))
	if err != nil || string(magic) != Magic {
		return h, &bio.SignatureError{Format: Name, Name: c.Name()}
	}
	endian, err := c.ReadUint8()
	if err != nil {
		return h, err
	}
	switch endian {
	case 'L':
		h.Order = binary.LittleEndian
	case 'B':
		h.Order = binary.BigEndian
	default:
		return h, bio.NewDecodeError(c.Name(), int64(len(Magic)), "illegal byte order '%c'", endian)
	}
	c.SetOrder(h.Order)
	if h.DataType, err = c.ReadUint16(); err != nil {
		return h, err
	}
	if _, err := h.pixelType(); err != nil {
		return h, bio.WrapDecodeError(c.Name(), c.Offset()-2, err)
	}

	sizesAt := c.Offset()
	var dims [4]uint32
	for i := range dims {
		if dims[i], err = c.ReadUint32(); err != nil {
			break
		}
	}
	h.Width, h.Height, h.Depth, h.Channels = int(dims[0]), int(dims[1]), int(dims[2]), int(dims[3])
	h.Size = sizesAt + 16
	if err != nil || h.dataBytes() != c.Size()-h.Size {
		var dims16 [4]uint16
		for i := range dims16 {
			if dims16[i], err = c.Uint16At(sizesAt + int64(2*i)); err != nil {
				return h, err
			}
		}
		short := Header{Order: h.Order, DataType: h.DataType, Size: sizesAt + 8,
			Width: int(dims16[0]), Height: int(dims16[1]), Depth: int(dims16[2]), Channels: int(dims16[3])}
		if short.dataBytes() == c.Size()-short.Size {
			h = short
		}
	}
	if h.Width < 1 || h.Height < 1 || h.Depth < 1 || h.Channels < 1 {
		return h, bio.NewDecodeError(c.Name(), sizesAt, "bad stack size %dx%dx%d with %d channels",
			h.Width, h.Height, h.Depth, h.Channels)
	}
	for _, d := range [4]int{h.Width, h.Height, h.Depth, h.Channels} {
		if d > MaxDimension {
			return h, bio.NewDecodeError(c.Name(), sizesAt, "stack size %dx%dx%d with %d channels exceeds %d",
				h.Width, h.Height, h.Depth, h.Channels, MaxDimension)
		}
	}
	if h.dataBytes() > c.Size()-h.Size {
		return h, bio.NewDecodeError(c.Name(), h.Size, "stack needs %d bytes, file has %d",
			h.dataBytes(), c.Size()-h.Size)
	}
	return h, nil
}

// Reader is a V3D raw format handler.
type Reader struct {
	format.Base

	header Header
}

func New() *Reader {
	return &Reader{Base: format.NewBase(Name, "v3draw")}
}

func (r *Reader) IsThisBlock(block []byte) bool {
	return bytes.HasPrefix(block, []byte(Magic))
}

func (r *Reader) IsThisStream(c *stream.Cursor) bool {
	defer c.Mark()()
	magic, err := c.BytesAt(0, len(Magic))
	return err == nil && string(magic) == Magic
}

func (r *Reader) Open(id string) error {
	if r.Begin(id) {
		return nil
	}
	r.header = Header{}
	c, err := r.OpenCursor(id)
	if err != nil {
		return err
	}
	h, err := ReadHeader(c)
	if err != nil {
		r.Close(false)
		return err
	}
	r.header = h
	pt, _ := h.pixelType()
	r.AddSeries(bio.SeriesDescriptor{
		SizeX:          h.Width,
		SizeY:          h.Height,
		SizeZ:          h.Depth,
		SizeC:          h.Channels,
		SizeT:          1,
		ImageCount:     h.Depth * h.Channels,
		PixelType:      pt,
		DimensionOrder: bio.OrderXYZCT,
		LittleEndian:   h.Order == binary.LittleEndian,
	})

	r.AddGlobal("Byte order", h.Order.String())
	r.AddGlobal("Data type", pt.String())
	r.AddGlobal("Header size", h.Size)
	store := r.Store()
	store.SetImageName(0, filepath.Base(id))
	if r.Level() != meta.LevelMinimum {
		for ch := 0; ch < h.Channels; ch++ {
			store.SetChannelName(0, ch, fmt.Sprintf("channel%d", ch))
		}
	}
	return r.Initialized(id)
}

func (r *Reader) Close(fileOnly bool) error {
	if !fileOnly {
		r.header = Header{}
	}
	return r.Base.Close(fileOnly)
}

func (r *Reader) Duplicate() (format.Reader, error) {
	return format.Reopen(r, New())
}

// Header returns the header of the open file.
func (r *Reader) Header() Header {
	return r.header
}

// ReadPlane reads a region of one plane.  Channel c of section z is plane
// c*depth + z, which is also its position in the file.
func (r *Reader) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if err := r.CheckRegion(no, x, y, w, h); err != nil {
		return nil, err
	}
	c, err := r.Cursor()
	if err != nil {
		return nil, err
	}
	d := r.Descriptor()
	sample := d.PixelType.Bytes()
	rowBytes := d.SizeX * sample
	start := r.header.Size + int64(no)*int64(rowBytes*d.SizeY) + int64(y*rowBytes)
	if x == 0 && w == d.SizeX {
		return c.BytesAt(start, h*rowBytes)
	}
	out := make([]byte, 0, w*h*sample)
	for row := 0; row < h; row++ {
		b, err := c.BytesAt(start+int64(row*rowBytes+x*sample), w*sample)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
