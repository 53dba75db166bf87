package tiff

import (
	"encoding/binary"
	"fmt"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/ifd"
	"github.com/janelia-flyem/bioio/stream"
)

const (
	planarChunky   = 1
	planarSeparate = 2

	predictorHorizontal = 2
)

// layout describes how the pixels of one directory are stored.  Strips are
// treated as tiles as wide as the image.
type layout struct {
	dir *ifd.Directory

	width, height int
	bits, samples int
	planar        uint64
	compression   uint64
	predictor     uint64
	photometric   uint64
	sampleFormat  uint64
	reduced       bool

	tiled        bool
	tileW, tileH int
	offsets      []uint64
	counts       []uint64
}

func newLayout(id string, dir *ifd.Directory) (*layout, error) {
	l := &layout{dir: dir}
	fail := func(format string, args ...interface{}) (*layout, error) {
		return nil, bio.NewDecodeError(id, dir.Offset, format, args...)
	}
	var err error
	get := func(tag uint16, def uint64) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = dir.Uint(tag, def)
		return v
	}
	width := get(TagImageWidth, 0)
	height := get(TagImageLength, 0)
	l.samples = int(get(TagSamplesPerPixel, 1))
	l.bits = int(get(TagBitsPerSample, 1))
	l.planar = get(TagPlanarConfiguration, planarChunky)
	l.compression = get(TagCompression, CompressionNone)
	l.predictor = get(TagPredictor, 1)
	l.photometric = get(TagPhotometric, PhotometricBlackIsZero)
	l.sampleFormat = get(TagSampleFormat, SampleUint)
	l.reduced = get(TagNewSubfileType, 0)&1 != 0
	if err != nil {
		return nil, bio.WrapDecodeError(id, dir.Offset, err)
	}
	if width == 0 || height == 0 || width > 1<<31 || height > 1<<31 {
		return fail("bad image size %d x %d", width, height)
	}
	l.width, l.height = int(width), int(height)
	if l.samples < 1 {
		return fail("bad samples per pixel %d", l.samples)
	}
	if l.bits%8 != 0 || l.bits > 64 || l.bits == 0 {
		return nil, bio.WrapDecodeError(id, dir.Offset,
			fmt.Errorf("%w: %d bits per sample", bio.ErrUnsupported, l.bits))
	}
	if l.compression != CompressionNone {
		name, found := compressionCodecs[l.compression]
		if !found {
			return nil, bio.WrapDecodeError(id, dir.Offset,
				fmt.Errorf("%w: compression %d", bio.ErrUnsupported, l.compression))
		}
		if _, err := codec.Get(name); err != nil {
			return nil, bio.WrapDecodeError(id, dir.Offset, err)
		}
	}
	if l.samples == 1 {
		l.planar = planarChunky
	}

	offsetTag, countTag := uint16(TagStripOffsets), uint16(TagStripByteCounts)
	if dir.Has(TagTileWidth) {
		l.tiled = true
		offsetTag, countTag = TagTileOffsets, TagTileByteCounts
		tw, th := get(TagTileWidth, 0), get(TagTileLength, 0)
		if err != nil || tw == 0 || th == 0 || tw > width*2+16 || th > height*2+16 {
			return fail("bad tile size %d x %d", tw, th)
		}
		l.tileW, l.tileH = int(tw), int(th)
	} else {
		rps := get(TagRowsPerStrip, height)
		if err != nil {
			return nil, bio.WrapDecodeError(id, dir.Offset, err)
		}
		if rps == 0 || rps > height {
			rps = height
		}
		l.tileW, l.tileH = l.width, int(rps)
	}
	if l.offsets, err = dir.Uints(offsetTag); err != nil {
		return nil, bio.WrapDecodeError(id, dir.Offset, err)
	}
	if l.counts, err = dir.Uints(countTag); err != nil {
		return nil, bio.WrapDecodeError(id, dir.Offset, err)
	}
	if want := l.tileCount(); len(l.offsets) < want {
		return fail("%d pixel blocks listed, %d needed", len(l.offsets), want)
	}
	if l.counts != nil && len(l.counts) < len(l.offsets) {
		return fail("%d byte counts for %d pixel blocks", len(l.counts), len(l.offsets))
	}
	if l.counts == nil && l.compression != CompressionNone {
		return fail("compressed data without byte counts")
	}
	return l, nil
}

func (l *layout) sameShape(o *layout) bool {
	return l.width == o.width && l.height == o.height && l.bits == o.bits &&
		l.samples == o.samples && l.planar == o.planar && l.sampleFormat == o.sampleFormat &&
		l.photometric == o.photometric
}

func (l *layout) pixelType() (bio.PixelType, error) {
	return bio.PixelTypeFromBytes(l.bits/8, l.sampleFormat == SampleInt, l.sampleFormat == SampleFloat)
}

// physicalSize returns microns per pixel when the resolution is in metric or
// imperial units.
func (l *layout) physicalSize() (x, y float64, ok bool) {
	unit, _ := l.dir.Uint(TagResolutionUnit, UnitInch)
	var scale float64
	switch unit {
	case UnitInch:
		scale = 25400
	case UnitCentimeter:
		scale = 10000
	default:
		return
	}
	res := func(tag uint16) float64 {
		e, found := l.dir.Entry(tag)
		if !found {
			return 0
		}
		r, err := e.Rationals()
		if err != nil || len(r) == 0 || r[0][0] <= 0 || r[0][1] <= 0 {
			return 0
		}
		return scale * float64(r[0][1]) / float64(r[0][0])
	}
	x, y = res(TagXResolution), res(TagYResolution)
	return x, y, x > 0 && y > 0
}

// groups returns the number of separately stored sample planes and the samples
// in each.
func (l *layout) groups() (groups, samples int) {
	if l.planar == planarSeparate {
		return l.samples, 1
	}
	return 1, l.samples
}

func (l *layout) grid() (across, down int) {
	return (l.width + l.tileW - 1) / l.tileW, (l.height + l.tileH - 1) / l.tileH
}

func (l *layout) tileCount() int {
	across, down := l.grid()
	groups, _ := l.groups()
	return across * down * groups
}

// readTile returns the decoded pixel block at index holding rows rows.
func (l *layout) readTile(c *stream.Cursor, order binary.ByteOrder, index, rows, samples int) ([]byte, error) {
	p := codec.Params{
		Width:           l.tileW,
		Height:          rows,
		BitsPerSample:   l.bits,
		SamplesPerPixel: samples,
		LittleEndian:    order == binary.LittleEndian,
	}
	expected := p.PlaneBytes()
	n := uint64(expected)
	if l.counts != nil {
		n = l.counts[index]
	}
	if n > uint64(c.Size()) {
		return nil, bio.NewDecodeError(c.Name(), int64(l.offsets[index]), "pixel block of %d bytes", n)
	}
	raw, err := c.BytesAt(int64(l.offsets[index]), int(n))
	if err != nil {
		return nil, err
	}
	data := raw
	if l.compression != CompressionNone {
		data, err = codec.Decode(compressionCodecs[l.compression], raw, p)
		if err != nil {
			return nil, bio.WrapDecodeError(c.Name(), int64(l.offsets[index]), err)
		}
	}
	switch {
	case len(data) < expected:
		bio.Debugf("Pixel block %d of %s is %d bytes short\n", index, c.Name(), expected-len(data))
		data = append(data, make([]byte, expected-len(data))...)
	case len(data) > expected:
		data = data[:expected]
	}
	if l.predictor == predictorHorizontal {
		if err := codec.UndoHorizontalDifferencing(data, l.tileW, samples, l.bits/8, order); err != nil {
			return nil, bio.WrapDecodeError(c.Name(), int64(l.offsets[index]), err)
		}
	}
	return data, nil
}

// read assembles the w x h region at (x, y).  Planar data is returned one
// sample plane after another.
func (l *layout) read(c *stream.Cursor, order binary.ByteOrder, x, y, w, h int) ([]byte, error) {
	groups, samples := l.groups()
	pixelBytes := samples * l.bits / 8
	across, down := l.grid()
	out := make([]byte, 0, groups*w*h*pixelBytes)
	for g := 0; g < groups; g++ {
		region := make([]byte, w*h*pixelBytes)
		for ty := y / l.tileH; ty <= (y+h-1)/l.tileH; ty++ {
			rows := l.tileH
			if !l.tiled && (ty+1)*l.tileH > l.height {
				rows = l.height - ty*l.tileH
			}
			for tx := x / l.tileW; tx <= (x+w-1)/l.tileW; tx++ {
				index := g*across*down + ty*across + tx
				tile, err := l.readTile(c, order, index, rows, samples)
				if err != nil {
					return nil, err
				}
				x0, x1 := max(x, tx*l.tileW), min(x+w, (tx+1)*l.tileW)
				y0, y1 := max(y, ty*l.tileH), min(y+h, ty*l.tileH+rows)
				n := (x1 - x0) * pixelBytes
				for row := y0; row < y1; row++ {
					src := ((row-ty*l.tileH)*l.tileW + x0 - tx*l.tileW) * pixelBytes
					dst := ((row-y)*w + x0 - x) * pixelBytes
					copy(region[dst:dst+n], tile[src:src+n])
				}
			}
		}
		out = append(out, region...)
	}
	return out, nil
}
