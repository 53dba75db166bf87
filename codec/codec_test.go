package codec_test

import (
	"bytes"
	"errors"
	"testing"

	kzlib "github.com/klauspost/compress/zlib"
	kzstd "github.com/klauspost/compress/zstd"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	_ "github.com/janelia-flyem/bioio/codec/deflate"
	_ "github.com/janelia-flyem/bioio/codec/lzw"
	"github.com/janelia-flyem/bioio/codec/msrle"
	_ "github.com/janelia-flyem/bioio/codec/msvideo"
	_ "github.com/janelia-flyem/bioio/codec/packbits"
	_ "github.com/janelia-flyem/bioio/codec/zstd"
)

// 4x2 RLE8 frames.  Frame 0 is a reference frame, frames 1 and 2 only update
// some pixels.
var rleFrames = [][]byte{
	{4, 1, 0, 0, 0, 3, 7, 8, 9, 0, 1, 5, 0, 1},
	{0, 2, 1, 1, 2, 4, 0, 1},
	{1, 6, 0, 1},
}

var rleExpected = [][]byte{
	{7, 8, 9, 5, 1, 1, 1, 1},
	{7, 4, 4, 5, 1, 1, 1, 1},
	{7, 4, 4, 5, 6, 1, 1, 1},
}

var rleParams = codec.Params{Width: 4, Height: 2, BitsPerSample: 8}

func rleSource(no int) ([]byte, error) {
	return rleFrames[no], nil
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"msrle", "RLE8", "msvideo", "cram", "packbits", "lzw", "deflate", "zlib", "zstd"} {
		if _, err := codec.Get(name); err != nil {
			t.Errorf("codec %q: %v", name, err)
		}
	}
	if _, err := codec.Get("jpeg2000"); !errors.Is(err, codec.ErrCodecNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	r := codec.NewRegistry()
	if err := r.Register(msrle.Codec{}, "a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(msrle.Codec{}); !errors.Is(err, codec.ErrCodecExists) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "msrle" {
		t.Errorf("bad names %v", names)
	}
}

func TestMSRLESequential(t *testing.T) {
	var prev []byte
	for i, frame := range rleFrames {
		p := rleParams
		p.Previous = prev
		out, err := codec.Decode("msrle", frame, p)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(out, rleExpected[i]) {
			t.Fatalf("frame %d: expected %v, got %v", i, rleExpected[i], out)
		}
		prev = out
	}
}

func TestMSRLEDeterministic(t *testing.T) {
	frame := append([]byte(nil), rleFrames[1]...)
	p := rleParams
	p.Previous = append([]byte(nil), rleExpected[0]...)
	a, err := codec.Decode("msrle", frame, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := codec.Decode("msrle", frame, p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("outputs differ: %v vs %v", a, b)
	}
	if !bytes.Equal(frame, rleFrames[1]) || !bytes.Equal(p.Previous, rleExpected[0]) {
		t.Fatalf("decode modified its inputs")
	}
	// Without the predecessor only the updated pixels are set.
	p.Previous = nil
	c, _ := codec.Decode("msrle", frame, p)
	if !bytes.Equal(c, []byte{0, 4, 4, 0, 0, 0, 0, 0}) {
		t.Fatalf("unexpected reference decode %v", c)
	}
}

func TestMSRLETruncated(t *testing.T) {
	_, err := codec.Decode("msrle", []byte{0, 5, 1, 2}, rleParams)
	if !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}

func TestSequencer(t *testing.T) {
	c, _ := codec.Get("msrle")

	seq := codec.NewSequencer(c, codec.SeekFail)
	for i := range rleFrames {
		out, err := seq.Decode(i, rleSource, rleParams)
		if err != nil || !bytes.Equal(out, rleExpected[i]) {
			t.Fatalf("frame %d: got %v (%v)", i, out, err)
		}
	}
	// Repeating the last plane is served from state.
	out, err := seq.Decode(2, rleSource, rleParams)
	if err != nil || !bytes.Equal(out, rleExpected[2]) {
		t.Fatalf("repeat: got %v (%v)", out, err)
	}
	_, err = seq.Decode(1, rleSource, rleParams)
	if !bio.IsSeek(err) {
		t.Fatalf("expected seek error, got %v", err)
	}

	// Replay reaches the same plane as a sequential pass.
	seq = codec.NewSequencer(c, codec.SeekReplay)
	out, err = seq.Decode(2, rleSource, rleParams)
	if err != nil || !bytes.Equal(out, rleExpected[2]) {
		t.Fatalf("replay: got %v (%v)", out, err)
	}
	if seq.Last() != 2 {
		t.Fatalf("expected last 2, got %d", seq.Last())
	}
	out, err = seq.Decode(1, rleSource, rleParams)
	if err != nil || !bytes.Equal(out, rleExpected[1]) {
		t.Fatalf("backward replay: got %v (%v)", out, err)
	}

	seq = codec.NewSequencer(c, codec.SeekAsReference)
	out, err = seq.Decode(2, rleSource, rleParams)
	if err != nil || !bytes.Equal(out, []byte{0, 0, 0, 0, 6, 0, 0, 0}) {
		t.Fatalf("reference: got %v (%v)", out, err)
	}
}

func TestMSVideo8(t *testing.T) {
	p := codec.Params{Width: 4, Height: 4, BitsPerSample: 8}
	out, err := codec.Decode("msvideo", []byte{5, 0x80}, p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, bytes.Repeat([]byte{5}, 16)) {
		t.Fatalf("1-color block: got %v", out)
	}

	out, err = codec.Decode("msvideo", []byte{0x01, 0x00, 10, 20}, p)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		want := byte(20)
		if i == 12 {
			want = 10
		}
		if v != want {
			t.Fatalf("2-color block pixel %d: expected %d, got %d", i, want, v)
		}
	}

	// Right block skipped keeps the previous frame.
	p = codec.Params{Width: 8, Height: 4, BitsPerSample: 8, Previous: bytes.Repeat([]byte{9}, 32)}
	out, err = codec.Decode("msvideo", []byte{5, 0x80, 1, 0x84}, p)
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < 4; row++ {
		left, right := out[row*8:row*8+4], out[row*8+4:row*8+8]
		if !bytes.Equal(left, []byte{5, 5, 5, 5}) || !bytes.Equal(right, []byte{9, 9, 9, 9}) {
			t.Fatalf("row %d: got %v %v", row, left, right)
		}
	}

	if _, err := codec.Decode("msvideo", []byte{1, 0x00, 10}, codec.Params{Width: 4, Height: 4}); !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}

func TestMSVideo16(t *testing.T) {
	p := codec.Params{Width: 4, Height: 4, BitsPerSample: 16}
	out, err := codec.Decode("msvideo", []byte{0x1F, 0x80}, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 48 {
		t.Fatalf("expected 48 RGB bytes, got %d", len(out))
	}
	for i := 0; i < 16; i++ {
		if !bytes.Equal(out[3*i:3*i+3], []byte{0, 0, 255}) {
			t.Fatalf("pixel %d: got %v", i, out[3*i:3*i+3])
		}
	}
}

func TestPackBits(t *testing.T) {
	src := []byte{0xFE, 0xAA, 0x02, 0x80, 0x00, 0x2A, 0xFD, 0xAA, 0x03, 0x80, 0x00, 0x2A, 0x22, 0xF7, 0xAA}
	want := []byte{0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0xAA, 0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0x22,
		0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	out, err := codec.Decode("packbits", src, codec.Params{Width: 24, Height: 1, BitsPerSample: 8})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("expected %x, got %x", want, out)
	}
}

func TestLZW(t *testing.T) {
	// 9-bit codes: clear, 'A', end of information.
	out, err := codec.Decode("lzw", []byte{0x80, 0x10, 0x60, 0x20}, codec.Params{Width: 1, Height: 1, BitsPerSample: 8})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "A" {
		t.Fatalf("expected \"A\", got %q", out)
	}
	_, err = codec.Decode("lzw", []byte{0x80, 0x10, 0x60, 0x20}, codec.Params{Width: 2, Height: 1, BitsPerSample: 8})
	if !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}

func TestDeflateAndZstd(t *testing.T) {
	plane := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 64)
	p := codec.Params{Width: 32, Height: 8, BitsPerSample: 16}

	var buf bytes.Buffer
	zw := kzlib.NewWriter(&buf)
	zw.Write(plane)
	zw.Close()
	out, err := codec.Decode("deflate", buf.Bytes(), p)
	if err != nil || !bytes.Equal(out, plane) {
		t.Fatalf("deflate: %v", err)
	}

	enc, err := kzstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err = codec.Decode("zstd", enc.EncodeAll(plane, nil), p)
	if err != nil || !bytes.Equal(out, plane) {
		t.Fatalf("zstd: %v", err)
	}
	_, err = codec.Decode("zstd", enc.EncodeAll(plane[:100], nil), p)
	if !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}

func TestPalette(t *testing.T) {
	pal := codec.NewPalette(2)
	pal.R[1], pal.G[1], pal.B[1] = 10, 20, 30
	out := pal.Apply([]byte{1, 0, 7})
	if !bytes.Equal(out, []byte{10, 20, 30, 0, 0, 0, 0, 0, 0}) {
		t.Fatalf("bad palette output %v", out)
	}
	p16, err := codec.PaletteFrom16([]uint64{0xFF00, 0x0100, 0x8000, 0, 0x1234, 0xFFFF})
	if err != nil || p16.Len() != 2 || p16.R[0] != 0xFF || p16.B[0] != 0x12 || p16.B[1] != 0xFF {
		t.Fatalf("bad 16-bit palette %+v (%v)", p16, err)
	}
}

func TestUndoHorizontalDifferencing(t *testing.T) {
	buf := []byte{1, 1, 1, 1, 10, 0xFF, 1, 2}
	if err := codec.UndoHorizontalDifferencing(buf, 4, 1, 1, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4, 10, 9, 10, 12}) {
		t.Fatalf("bad undo %v", buf)
	}
}
