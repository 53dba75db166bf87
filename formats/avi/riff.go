package avi

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/ifd"
	"github.com/janelia-flyem/bioio/stream"
)

// Bitmap compression codes that are not four-character codes.
const (
	compressionNone      = 0
	compressionRLE8      = 1
	compressionRLE4      = 2
	compressionBitfields = 3
)

const (
	mainHeaderBytes   = 40
	streamHeaderBytes = 48
	bitmapHeaderBytes = 40
)

func isAVI(block []byte) bool {
	return ifd.IsContainer(block, "RIFF", "AVI ")
}

// mainHeader holds the avih chunk and the header of the video stream.
type mainHeader struct {
	microSecPerFrame uint32
	maxBytesPerSec   uint32
	totalFrames      uint32
	initialFrames    uint32
	streams          uint32
	width, height    uint32

	handler    string
	scale      uint32
	rate       uint32
	length     uint32
	quality    uint32
	sampleSize uint32
	name       string
}

// bitmapInfo is the stream format of a video stream.
type bitmapInfo struct {
	width, height  int
	topDown        bool
	bits           int
	compression    uint32
	sizeImage      uint32
	xPelsPerMeter  int32
	yPelsPerMeter  int32
	colorsUsed     uint32
	colorsRequired uint32
}

// codecName returns the codec registry name for the compression code.
func (b bitmapInfo) codecName() string {
	switch b.compression {
	case compressionRLE8:
		return "msrle"
	case compressionRLE4:
		return "rle4"
	case compressionBitfields:
		return "bitfields"
	}
	var fourcc [4]byte
	binary.LittleEndian.PutUint32(fourcc[:], b.compression)
	return strings.ToLower(strings.TrimSpace(string(fourcc[:])))
}

func (b bitmapInfo) compressionName() string {
	switch b.codecName() {
	case "":
		return "Raw (uncompressed)"
	case "msrle", "mrle":
		return "Microsoft Run-Length Encoding (MSRLE)"
	case "cram", "msvc", "wham":
		return "Microsoft Video (MSV1)"
	}
	return b.codecName()
}

// stride is the stored size of one uncompressed row, padded to 4 bytes.
func (b bitmapInfo) stride() int {
	return ((b.width*b.bits + 31) / 32) * 4
}

func (b bitmapInfo) checkRaw() error {
	switch b.bits {
	case 4, 8, 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d bits per pixel", bio.ErrUnsupported, b.bits)
}

// convertRow converts w stored pixels starting at x to palette indices or to
// RGB triples.
func (b bitmapInfo) convertRow(src []byte, x, w int) []byte {
	switch b.bits {
	case 4:
		out := make([]byte, w)
		for i := range out {
			v := src[(x+i)/2]
			if (x+i)%2 == 0 {
				v >>= 4
			}
			out[i] = v & 0x0F
		}
		return out
	case 8:
		return append([]byte(nil), src[x:x+w]...)
	}
	out := make([]byte, 3*w)
	for i := 0; i < w; i++ {
		o := out[3*i : 3*i+3]
		switch b.bits {
		case 16:
			v := binary.LittleEndian.Uint16(src[2*(x+i):])
			o[0] = byte(v>>10&0x1F) << 3
			o[1] = byte(v>>5&0x1F) << 3
			o[2] = byte(v&0x1F) << 3
		case 24:
			p := src[3*(x+i):]
			o[0], o[1], o[2] = p[2], p[1], p[0]
		case 32:
			p := src[4*(x+i):]
			o[0], o[1], o[2] = p[2], p[1], p[0]
		}
	}
	return out
}

// parser walks the RIFF structure of an AVI file.
type parser struct {
	id string
	c  *stream.Cursor

	main    mainHeader
	bmp     bitmapInfo
	palette *codec.Palette
	hasBmp  bool

	streams int
	current string
	video   int
	prefix  string

	frames []frame
	planes []int
}

func (p *parser) parse() error {
	c := p.c
	c.SetLittleEndian(true)
	block, err := c.BytesAt(0, 12)
	if err != nil || !isAVI(block) {
		return &bio.SignatureError{Format: Name, Name: p.id}
	}
	if err := c.Seek(0); err != nil {
		return err
	}
	for c.Remaining() >= 12 {
		ch, err := ifd.ReadChunk(c)
		if err != nil {
			return err
		}
		if ch.ID != "RIFF" || (ch.Form != "AVI " && ch.Form != "AVIX") {
			bio.Debugf("Ignoring %q chunk at %d in %s\n", ch.ID, ch.Offset, p.id)
			break
		}
		if err := p.walk(ch, false); err != nil {
			return err
		}
		if err := c.Seek(p.next(ch)); err != nil {
			return err
		}
	}
	return nil
}

// next returns the offset after ch, which may be truncated by the end of file.
func (p *parser) next(ch ifd.Chunk) int64 {
	if end := ch.End(); end < p.c.Size() {
		return end
	}
	return p.c.Size()
}

func (p *parser) walk(list ifd.Chunk, inMovi bool) error {
	end := p.next(list)
	for p.c.Offset()+8 <= end {
		ch, err := ifd.ReadChunk(p.c)
		if err != nil {
			return err
		}
		if ch.Form != "" {
			err = p.walk(ch, inMovi || ch.Form == "movi")
		} else {
			err = p.chunk(ch, inMovi)
		}
		if err != nil {
			return err
		}
		if err := p.c.Seek(p.next(ch)); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) short(ch ifd.Chunk, want int64) error {
	if ch.Size < want {
		return bio.NewDecodeError(p.id, ch.Offset, "%q chunk of %d bytes, expected at least %d", ch.ID, ch.Size, want)
	}
	return nil
}

func (p *parser) chunk(ch ifd.Chunk, inMovi bool) error {
	switch ch.ID {
	case "avih":
		return p.readMainHeader(ch)
	case "strh":
		return p.readStreamHeader(ch)
	case "strf":
		if p.current == "vids" && p.video == p.streams-1 && !p.hasBmp {
			return p.readBitmapInfo(ch)
		}
	case "strn":
		if p.current == "vids" && p.video == p.streams-1 {
			name, err := p.c.ReadString(int(ch.Size))
			if err != nil {
				return err
			}
			p.main.name = name
		}
	case "JUNK", "idx1":
	default:
		if !inMovi || p.video < 0 || !strings.HasPrefix(ch.ID, p.prefix) {
			return nil
		}
		switch ch.ID[2:] {
		case "db", "dc":
			p.addFrame(ch)
		case "pc":
			bio.Debugf("Ignoring palette change at %d in %s\n", ch.Offset, p.id)
		}
	}
	return nil
}

func (p *parser) addFrame(ch ifd.Chunk) {
	if ch.Size > 0 {
		p.frames = append(p.frames, frame{offset: ch.Offset, length: ch.Size})
	}
	// empty chunks repeat the previous frame
	p.planes = append(p.planes, len(p.frames)-1)
}

func (p *parser) readMainHeader(ch ifd.Chunk) error {
	if err := p.short(ch, mainHeaderBytes); err != nil {
		return err
	}
	raw, err := p.c.ReadFull(mainHeaderBytes)
	if err != nil {
		return err
	}
	u := func(i int) uint32 { return binary.LittleEndian.Uint32(raw[4*i:]) }
	p.main.microSecPerFrame = u(0)
	p.main.maxBytesPerSec = u(1)
	p.main.totalFrames = u(4)
	p.main.initialFrames = u(5)
	p.main.streams = u(6)
	p.main.width = u(8)
	p.main.height = u(9)
	return nil
}

func (p *parser) readStreamHeader(ch ifd.Chunk) error {
	if err := p.short(ch, streamHeaderBytes); err != nil {
		return err
	}
	raw, err := p.c.ReadFull(streamHeaderBytes)
	if err != nil {
		return err
	}
	p.current = string(raw[0:4])
	if p.current == "vids" && p.video < 0 {
		p.video = p.streams
		p.prefix = fmt.Sprintf("%02d", p.video)
		u := func(off int) uint32 { return binary.LittleEndian.Uint32(raw[off:]) }
		p.main.handler = strings.TrimRight(string(raw[4:8]), " \x00")
		p.main.scale = u(20)
		p.main.rate = u(24)
		p.main.length = u(32)
		p.main.quality = u(40)
		p.main.sampleSize = u(44)
	}
	p.streams++
	return nil
}

func (p *parser) readBitmapInfo(ch ifd.Chunk) error {
	if err := p.short(ch, bitmapHeaderBytes); err != nil {
		return err
	}
	raw, err := p.c.ReadFull(bitmapHeaderBytes)
	if err != nil {
		return err
	}
	le := binary.LittleEndian
	size := int64(le.Uint32(raw[0:]))
	width := int32(le.Uint32(raw[4:]))
	height := int32(le.Uint32(raw[8:]))
	b := bitmapInfo{
		width:          int(width),
		height:         int(height),
		bits:           int(le.Uint16(raw[14:])),
		compression:    le.Uint32(raw[16:]),
		sizeImage:      le.Uint32(raw[20:]),
		xPelsPerMeter:  int32(le.Uint32(raw[24:])),
		yPelsPerMeter:  int32(le.Uint32(raw[28:])),
		colorsUsed:     le.Uint32(raw[32:]),
		colorsRequired: le.Uint32(raw[36:]),
	}
	if b.height < 0 {
		b.height, b.topDown = -b.height, true
	}
	if b.width < 1 || b.height < 1 {
		return bio.NewDecodeError(p.id, ch.Offset, "bad frame size %dx%d", b.width, b.height)
	}
	p.bmp, p.hasBmp = b, true

	if b.bits > 8 {
		return nil
	}
	n := int64(b.colorsUsed)
	if n == 0 {
		n = 1 << uint(b.bits)
	}
	if size < bitmapHeaderBytes {
		size = bitmapHeaderBytes
	}
	if avail := (ch.Size - size) / 4; avail < n {
		if avail < 1 {
			bio.Debugf("No color table in %d-bit stream of %s\n", b.bits, p.id)
			return nil
		}
		n = avail
	}
	if n > 256 {
		n = 256
	}
	lut, err := p.c.BytesAt(ch.Offset+size, int(4*n))
	if err != nil {
		return err
	}
	pal := codec.NewPalette(int(n))
	for i := 0; i < int(n); i++ {
		pal.B[i], pal.G[i], pal.R[i] = lut[4*i], lut[4*i+1], lut[4*i+2]
	}
	p.palette = pal
	return nil
}
