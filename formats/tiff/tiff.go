/*
	Package tiff reads baseline TIFF and BigTIFF files.  Consecutive image
	directories with the same geometry form one series, one plane per directory.
	Strips and tiles, chunky and planar layouts, the codecs registered for the
	common compression codes, horizontal differencing and palettes are supported.

	Vendor formats built on TIFF open their files with this reader.
*/
package tiff

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/ifd"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	_ "github.com/janelia-flyem/bioio/codec/deflate"
	_ "github.com/janelia-flyem/bioio/codec/lzw"
	_ "github.com/janelia-flyem/bioio/codec/packbits"
	_ "github.com/janelia-flyem/bioio/codec/zstd"

	"github.com/blang/semver"
)

const (
	Version = "0.3.0"
	Name    = "TIFF"
)

// Handler returns the registry entry for this reader.
func Handler() format.Handler {
	return format.Handler{
		Name:    Name,
		Version: semver.MustParse(Version),
		New:     func() format.Reader { return New() },
	}
}

// Reader is a TIFF format handler.
type Reader struct {
	format.Base

	header   ifd.Header
	planes   [][]*layout
	palettes []*codec.Palette
}

func New() *Reader {
	return &Reader{Base: format.NewBase(Name, "tif", "tiff", "tf2", "tf8", "btf")}
}

func (r *Reader) IsThisBlock(block []byte) bool {
	return ifd.IsHeader(block, ifd.MagicTIFF, ifd.MagicBigTIFF)
}

func (r *Reader) IsThisStream(c *stream.Cursor) bool {
	defer c.Mark()()
	_, err := ifd.ReadHeader(c)
	return err == nil
}

func (r *Reader) reset() {
	r.header = ifd.Header{}
	r.planes = nil
	r.palettes = nil
}

func (r *Reader) Open(id string) error {
	if r.Begin(id) {
		return nil
	}
	r.reset()
	c, err := r.OpenCursor(id)
	if err != nil {
		return err
	}
	if err := r.initFile(id, c); err != nil {
		r.Close(false)
		return err
	}
	return r.Initialized(id)
}

func (r *Reader) Close(fileOnly bool) error {
	if !fileOnly {
		r.reset()
	}
	return r.Base.Close(fileOnly)
}

func (r *Reader) Duplicate() (format.Reader, error) {
	return format.Reopen(r, New())
}

// Header returns the header of the open file.
func (r *Reader) Header() ifd.Header {
	return r.header
}

// Directories returns the directories of the current series, one per plane.
func (r *Reader) Directories() []*ifd.Directory {
	if r.Series() >= len(r.planes) {
		return nil
	}
	dirs := make([]*ifd.Directory, len(r.planes[r.Series()]))
	for i, l := range r.planes[r.Series()] {
		dirs[i] = l.dir
	}
	return dirs
}

func (r *Reader) LookupTable() *codec.Palette {
	if r.Series() >= len(r.palettes) {
		return nil
	}
	return r.palettes[r.Series()]
}

func (r *Reader) initFile(id string, c *stream.Cursor) error {
	hdr, err := ifd.ReadHeader(c)
	if err != nil {
		return err
	}
	r.header = hdr
	r.AddGlobal("BigTIFF", hdr.BigTIFF)
	r.AddGlobal("LittleEndian", hdr.Order == binary.LittleEndian)

	var group []*layout
	chain := ifd.NewChain(c, hdr)
	for chain.Next() {
		dir := chain.Directory()
		l, err := newLayout(id, dir)
		if err != nil {
			return err
		}
		if l.reduced && len(group) > 0 {
			bio.Debugf("Skipping reduced resolution directory at %d in %s\n", dir.Offset, id)
			continue
		}
		if len(group) > 0 && !l.sameShape(group[0]) {
			if err := r.addSeries(id, group); err != nil {
				return err
			}
			group = nil
		}
		group = append(group, l)
	}
	if err := chain.Err(); err != nil {
		return err
	}
	if len(group) == 0 {
		return bio.NewDecodeError(id, hdr.FirstOffset, "no image directories")
	}
	return r.addSeries(id, group)
}

func (r *Reader) addSeries(id string, planes []*layout) error {
	l := planes[0]
	pt, err := l.pixelType()
	if err != nil {
		return bio.WrapDecodeError(id, l.dir.Offset, err)
	}
	d := bio.SeriesDescriptor{
		SizeX:          l.width,
		SizeY:          l.height,
		SizeZ:          len(planes),
		SizeC:          l.samples,
		SizeT:          1,
		ImageCount:     len(planes),
		PixelType:      pt,
		BitsPerPixel:   l.bits,
		DimensionOrder: bio.OrderXYCZT,
		LittleEndian:   r.header.Order == binary.LittleEndian,
		RGB:            l.samples > 1,
		Interleaved:    l.planar != planarSeparate,
		Indexed:        l.photometric == PhotometricPalette,
	}
	var palette *codec.Palette
	if d.Indexed {
		cm, err := l.dir.Uints(TagColorMap)
		if err == nil && len(cm) > 0 {
			palette, err = codec.PaletteFrom16(cm)
		}
		if palette == nil {
			bio.Warningf("Palette image in %s has no usable color map (%v)\n", id, err)
			d.Indexed = false
		}
	}
	s := r.AddSeries(d)
	r.planes = append(r.planes, planes)
	r.palettes = append(r.palettes, palette)
	r.populate(id, s, l)
	return nil
}

func (r *Reader) populate(id string, s int, l *layout) {
	for _, tag := range l.dir.Tags() {
		name, found := tagNames[tag]
		if !found {
			continue
		}
		e, _ := l.dir.Entry(tag)
		r.AddSeriesMeta(s, name, e.Value())
	}
	r.AddSeriesMeta(s, "Compression", compressionNames[l.compression])
	r.AddSeriesMeta(s, "PhotometricInterpretation", photometricNames[l.photometric])
	if s == 0 {
		r.AddGlobal("Software", l.dir.Text(TagSoftware))
		r.AddGlobal("DateTime", l.dir.Text(TagDateTime))
	}

	store := r.Store()
	store.SetImageName(s, fmt.Sprintf("%s #%d", filepath.Base(id), s+1))
	if r.Level() == meta.LevelMinimum {
		return
	}
	if desc := l.dir.Text(TagImageDescription); desc != "" {
		store.SetImageDescription(s, desc)
	}
	if date := l.dir.Text(TagDateTime); date != "" {
		store.SetAcquisitionDate(s, date)
	}
	if px, py, ok := l.physicalSize(); ok {
		store.SetPhysicalSize(s, px, py, 0)
	}
}

func (r *Reader) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if err := r.CheckRegion(no, x, y, w, h); err != nil {
		return nil, err
	}
	c, err := r.Cursor()
	if err != nil {
		return nil, err
	}
	l := r.planes[r.Series()][no]
	return l.read(c, r.header.Order, x, y, w, h)
}
