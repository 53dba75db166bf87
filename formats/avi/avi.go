/*
	Package avi reads Audio Video Interleave files holding one video stream.
	Every frame is a plane along T.  Uncompressed 4, 8, 16, 24 and 32 bit frames
	are supported, as are the predictive Microsoft RLE and Microsoft Video 1
	codecs.  Palettized frames stay indexed when uncompressed and are expanded to
	RGB after decompression.
*/
package avi

import (
	"fmt"
	"path/filepath"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	_ "github.com/janelia-flyem/bioio/codec/msrle"
	_ "github.com/janelia-flyem/bioio/codec/msvideo"

	"github.com/blang/semver"
)

const (
	Version = "0.2.0"
	Name    = "AVI"
)

// DefaultSeekPolicy is used by new readers for non-sequential access to
// predictively compressed frames.
var DefaultSeekPolicy = codec.SeekAsReference

// Handler returns the registry entry for this reader.
func Handler() format.Handler {
	return format.Handler{
		Name:    Name,
		Version: semver.MustParse(Version),
		New:     func() format.Reader { return New() },
	}
}

// frame is the location of one stored video frame.
type frame struct {
	offset int64
	length int64
}

// Reader is an AVI format handler.
type Reader struct {
	format.Base

	policy codec.SeekPolicy
	seq    *codec.Sequencer

	main    mainHeader
	bmp     bitmapInfo
	palette *codec.Palette

	// frames holds non-empty frame chunks; planes maps each plane to its frame,
	// or -1 for leading empty chunks.
	frames []frame
	planes []int

	// expand is set when decoded indices are mapped through the palette.
	expand bool
}

func New() *Reader {
	return &Reader{Base: format.NewBase(Name, "avi"), policy: DefaultSeekPolicy}
}

// SetSeekPolicy sets how frames of predictive codecs are decoded out of order.
func (r *Reader) SetSeekPolicy(p codec.SeekPolicy) {
	r.policy = p
	if r.seq != nil {
		r.seq = codec.NewSequencer(r.seq.Codec(), p)
	}
}

func (r *Reader) SeekPolicy() codec.SeekPolicy { return r.policy }

func (r *Reader) IsThisBlock(block []byte) bool {
	return isAVI(block)
}

func (r *Reader) IsThisStream(c *stream.Cursor) bool {
	defer c.Mark()()
	if err := c.Seek(0); err != nil {
		return false
	}
	block, err := c.ReadFull(12)
	return err == nil && isAVI(block)
}

func (r *Reader) reset() {
	r.seq = nil
	r.main = mainHeader{}
	r.bmp = bitmapInfo{}
	r.palette = nil
	r.frames = nil
	r.planes = nil
	r.expand = false
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
	fresh := New()
	fresh.policy = r.policy
	return format.Reopen(r, fresh)
}

func (r *Reader) LookupTable() *codec.Palette {
	if r.expand {
		return nil
	}
	return r.palette
}

// FrameCount returns the number of frame chunks, counting empty ones.
func (r *Reader) FrameCount() int {
	return len(r.planes)
}

func (r *Reader) initFile(id string, c *stream.Cursor) error {
	p := &parser{id: id, c: c, video: -1}
	if err := p.parse(); err != nil {
		return err
	}
	if p.video < 0 {
		return bio.NewDecodeError(id, -1, "no video stream")
	}
	if len(p.planes) == 0 {
		return bio.NewDecodeError(id, -1, "no video frames")
	}
	r.main, r.bmp, r.palette = p.main, p.bmp, p.palette
	r.frames, r.planes = p.frames, p.planes

	d := bio.SeriesDescriptor{
		SizeX:        r.bmp.width,
		SizeY:        r.bmp.height,
		SizeZ:        1,
		SizeT:        len(r.planes),
		ImageCount:   len(r.planes),
		PixelType:    bio.Uint8,
		LittleEndian: true,
	}
	if r.bmp.compression == compressionNone {
		if err := r.bmp.checkRaw(); err != nil {
			return bio.WrapDecodeError(id, -1, err)
		}
	} else {
		name := r.bmp.codecName()
		cd, err := codec.Get(name)
		if err != nil {
			return bio.WrapDecodeError(id, -1, fmt.Errorf("%w: AVI compression %q", bio.ErrUnsupported, name))
		}
		r.seq = codec.NewSequencer(cd, r.policy)
	}

	indices := r.bmp.bits <= 8
	switch {
	case indices && r.seq != nil && r.palette != nil:
		r.expand = true
		d.SizeC, d.RGB, d.Interleaved = 3, true, true
	case indices:
		d.SizeC = 1
		d.Indexed = r.palette != nil
	default:
		d.SizeC, d.RGB, d.Interleaved = 3, true, true
	}
	if d.SizeC == 3 {
		d.DimensionOrder = bio.OrderXYCTZ
	} else {
		d.DimensionOrder = bio.OrderXYTCZ
	}
	r.AddSeries(d)
	r.populate(id)
	return nil
}

func (r *Reader) populate(id string) {
	r.AddGlobal("Microseconds per frame", r.main.microSecPerFrame)
	r.AddGlobal("Max. bytes per second", r.main.maxBytesPerSec)
	r.AddGlobal("Total frames", r.main.totalFrames)
	r.AddGlobal("Initial frames", r.main.initialFrames)
	r.AddGlobal("Streams", r.main.streams)
	r.AddGlobal("Frame width", r.main.width)
	r.AddGlobal("Frame height", r.main.height)
	r.AddGlobal("Stream quality", r.main.quality)
	r.AddGlobal("Stream sample size", r.main.sampleSize)
	r.AddGlobal("Stream name", r.main.name)
	r.AddGlobal("Stream handler", r.main.handler)
	r.AddGlobal("Stream length", r.main.length)
	if r.main.scale > 0 {
		r.AddGlobal("Frame rate", float64(r.main.rate)/float64(r.main.scale))
	}
	r.AddGlobal("Bitmap compression", r.bmp.compressionName())
	r.AddGlobal("Bits per pixel", r.bmp.bits)
	r.AddGlobal("Horizontal resolution", r.bmp.xPelsPerMeter)
	r.AddGlobal("Vertical resolution", r.bmp.yPelsPerMeter)
	r.AddGlobal("Colors used", r.palette.Len())

	store := r.Store()
	store.SetImageName(0, filepath.Base(id))
	if r.Level() == meta.LevelMinimum {
		return
	}
	if r.bmp.xPelsPerMeter > 0 && r.bmp.yPelsPerMeter > 0 {
		store.SetPhysicalSize(0, 1e6/float64(r.bmp.xPelsPerMeter), 1e6/float64(r.bmp.yPelsPerMeter), 0)
	}
	if r.main.microSecPerFrame > 0 {
		dt := float64(r.main.microSecPerFrame) / 1e6
		for t := range r.planes {
			store.SetPlaneTiming(0, t, float64(t)*dt, dt)
		}
	}
}

func (r *Reader) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if err := r.CheckRegion(no, x, y, w, h); err != nil {
		return nil, err
	}
	d := r.Descriptor()
	f := r.planes[no]
	if f < 0 {
		return format.BlankPlane(d, w, h), nil
	}
	c, err := r.Cursor()
	if err != nil {
		return nil, err
	}
	if r.seq == nil {
		return r.readRaw(c, r.frames[f], x, y, w, h)
	}
	src := func(i int) ([]byte, error) {
		fr := r.frames[i]
		return c.BytesAt(fr.offset, int(fr.length))
	}
	params := codec.Params{
		Width:         r.bmp.width,
		Height:        r.bmp.height,
		BitsPerSample: r.bmp.bits,
		LittleEndian:  true,
	}
	plane, err := r.seq.Decode(f, src, params)
	if err != nil {
		return nil, bio.WrapDecodeError(r.CurrentFile(), r.frames[f].offset, err)
	}
	if r.expand {
		plane = r.palette.Apply(plane)
	}
	return bio.CopyRegion(plane, d.SizeX, d.RGBChannelCount(), x, y, w, h), nil
}

// readRaw reads the rows of an uncompressed frame that cover the region.
func (r *Reader) readRaw(c *stream.Cursor, fr frame, x, y, w, h int) ([]byte, error) {
	stride := r.bmp.stride()
	if need := int64(stride * r.bmp.height); fr.length < need {
		return nil, bio.NewDecodeError(r.CurrentFile(), fr.offset, "frame of %d bytes, expected %d", fr.length, need)
	}
	samples := r.Descriptor().RGBChannelCount()
	out := make([]byte, 0, w*h*samples)
	for row := y; row < y+h; row++ {
		stored := row
		if !r.bmp.topDown {
			stored = r.bmp.height - 1 - row
		}
		src, err := c.BytesAt(fr.offset+int64(stored*stride), stride)
		if err != nil {
			return nil, err
		}
		out = append(out, r.bmp.convertRow(src, x, w)...)
	}
	return out, nil
}
