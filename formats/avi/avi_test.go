package avi

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/stream"
	"github.com/janelia-flyem/bioio/tests"
)

// movie describes a synthetic single-stream AVI file.
type movie struct {
	width, height, bits int
	compression         uint32
	palette             [][3]byte
	frames              [][]byte
	audio               bool
}

func (m movie) bytes() []byte {
	n := uint32(len(m.frames))
	streams := uint32(1)
	hdrl := []tests.Chunk{
		{ID: "avih", Data: tests.LE(40000, 0, 0, 0, n, 0, streams, 0, uint32(m.width), uint32(m.height))},
	}
	var movi []tests.Chunk
	if m.audio {
		hdrl = append(hdrl, tests.Chunk{ID: "LIST", Form: "strl", Children: []tests.Chunk{
			{ID: "strh", Data: append([]byte("auds\x00\x00\x00\x00"), tests.LE(0, 0, 0, 1, 8000, 0, 0, 0, 0, 1)...)},
			{ID: "strf", Data: tests.LE16(1, 1, 8000, 0)},
		}})
		movi = append(movi, tests.Chunk{ID: "00wb", Data: []byte{1, 2, 3, 4}})
	}
	strf := append(tests.LE(40, uint32(m.width), uint32(m.height)), tests.LE16(1, uint16(m.bits))...)
	strf = append(strf, tests.LE(m.compression, 0, 2000, 4000, uint32(len(m.palette)), 0)...)
	for _, c := range m.palette {
		strf = append(strf, c[2], c[1], c[0], 0)
	}
	hdrl = append(hdrl, tests.Chunk{ID: "LIST", Form: "strl", Children: []tests.Chunk{
		{ID: "strh", Data: append([]byte("vidsDIB "), tests.LE(0, 0, 0, 1, 25, 0, n, 0, 10000, 0)...)},
		{ID: "strf", Data: strf},
		{ID: "strn", Data: []byte("camera\x00")},
	}})
	prefix := "00"
	if m.audio {
		prefix = "01"
	}
	for _, f := range m.frames {
		movi = append(movi, tests.Chunk{ID: prefix + "dc", Data: f})
	}
	riff := tests.Chunk{ID: "RIFF", Form: "AVI ", Children: []tests.Chunk{
		{ID: "LIST", Form: "hdrl", Children: hdrl},
		{ID: "JUNK", Data: make([]byte, 7)},
		{ID: "LIST", Form: "movi", Children: movi},
		{ID: "idx1", Data: make([]byte, 16)},
	}}
	return riff.Bytes()
}

// raw stores a top-down plane of bytesPerPixel samples bottom-up with rows
// padded to 4 bytes.
func raw(plane []byte, width, height, bytesPerPixel int) []byte {
	row := width * bytesPerPixel
	stride := (row + 3) / 4 * 4
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		copy(out[(height-1-y)*stride:], plane[y*row:(y+1)*row])
	}
	return out
}

func writeMovie(t *testing.T, m movie) string {
	path := filepath.Join(t.TempDir(), "movie.avi")
	if err := os.WriteFile(path, m.bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openMovie(t *testing.T, m movie) *Reader {
	r := New()
	if err := r.Open(writeMovie(t, m)); err != nil {
		t.Fatalf("couldn't open movie: %v", err)
	}
	return r
}

func ramp(n int) [][3]byte {
	out := make([][3]byte, n)
	for i := range out {
		out[i] = [3]byte{byte(i), byte(2 * i), byte(3 * i)}
	}
	return out
}

func TestUncompressedIndexed(t *testing.T) {
	planes := [][]byte{tests.Ramp(6, 0), tests.Ramp(6, 10)}
	m := movie{width: 3, height: 2, bits: 8, palette: ramp(16)}
	for _, p := range planes {
		m.frames = append(m.frames, raw(p, 3, 2, 1))
	}
	r := openMovie(t, m)
	defer r.Close(false)

	d := r.Descriptor()
	if d.SizeX != 3 || d.SizeY != 2 || d.SizeT != 2 || d.SizeZ != 1 || d.SizeC != 1 {
		t.Fatalf("bad dimensions %s", d)
	}
	if !d.Indexed || d.RGB || d.DimensionOrder != bio.OrderXYTCZ || !d.LittleEndian {
		t.Errorf("bad descriptor %+v", d)
	}
	lut := r.LookupTable()
	if lut.Len() != 16 || lut.R[5] != 5 || lut.G[5] != 10 || lut.B[5] != 15 {
		t.Errorf("bad lookup table %v", lut)
	}
	for no, want := range planes {
		got, err := format.ReadFullPlane(r, no)
		if err != nil {
			t.Fatalf("plane %d: %v", no, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("plane %d: expected %v, got %v", no, want, got)
		}
	}
	got, err := r.ReadPlane(1, 1, 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{14, 15}) {
		t.Errorf("bad region %v", got)
	}
	md := r.GlobalMetadata()
	if md["Total frames"] != uint32(2) || md["Frame rate"] != 25.0 || md["Stream name"] != "camera" {
		t.Errorf("bad metadata %v", md)
	}
}

func TestUncompressedRGB(t *testing.T) {
	rgb := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	bgr := make([]byte, len(rgb))
	for i := 0; i < len(rgb); i += 3 {
		bgr[i], bgr[i+1], bgr[i+2] = rgb[i+2], rgb[i+1], rgb[i]
	}
	r := openMovie(t, movie{width: 2, height: 2, bits: 24, frames: [][]byte{raw(bgr, 2, 2, 3)}, audio: true})
	defer r.Close(false)

	d := r.Descriptor()
	if d.SizeC != 3 || !d.RGB || !d.Interleaved || d.DimensionOrder != bio.OrderXYCTZ || d.ImageCount != 1 {
		t.Fatalf("bad descriptor %+v", d)
	}
	if r.LookupTable() != nil {
		t.Errorf("unexpected lookup table")
	}
	got, err := format.ReadFullPlane(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, rgb) {
		t.Errorf("expected %v, got %v", rgb, got)
	}
	got, err = r.ReadPlane(0, 1, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{10, 11, 12}) {
		t.Errorf("bad region %v", got)
	}
}

func TestRGB555(t *testing.T) {
	// red, green, blue, white
	pixels := tests.LE16(0x7C00, 0x03E0, 0x001F, 0x7FFF)
	r := openMovie(t, movie{width: 2, height: 2, bits: 16, frames: [][]byte{raw(pixels, 2, 2, 2)}})
	defer r.Close(false)
	got, err := format.ReadFullPlane(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{248, 0, 0, 0, 248, 0, 0, 0, 248, 248, 248, 248}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// 4x2 RLE8 frames; frames 1 and 2 only update some pixels of their predecessor.
var rleFrames = [][]byte{
	{4, 1, 0, 0, 0, 3, 7, 8, 9, 0, 1, 5, 0, 1},
	{0, 2, 1, 1, 2, 4, 0, 1},
	{1, 6, 0, 1},
}

var rleIndices = [][]byte{
	{7, 8, 9, 5, 1, 1, 1, 1},
	{7, 4, 4, 5, 1, 1, 1, 1},
	{7, 4, 4, 5, 6, 1, 1, 1},
}

func expand(indices []byte) []byte {
	out := make([]byte, 0, 3*len(indices))
	for _, v := range indices {
		out = append(out, v, 2*v, 3*v)
	}
	return out
}

func rleMovie() movie {
	return movie{width: 4, height: 2, bits: 8, compression: compressionRLE8, palette: ramp(16), frames: rleFrames}
}

func TestMSRLE(t *testing.T) {
	r := openMovie(t, rleMovie())
	defer r.Close(false)

	d := r.Descriptor()
	if d.SizeC != 3 || !d.RGB || d.Indexed || d.SizeT != 3 {
		t.Fatalf("bad descriptor %+v", d)
	}
	if r.LookupTable() != nil {
		t.Errorf("expanded frames should have no lookup table")
	}
	if r.GlobalMetadata()["Bitmap compression"] != "Microsoft Run-Length Encoding (MSRLE)" {
		t.Errorf("bad compression name %v", r.GlobalMetadata()["Bitmap compression"])
	}
	for no, indices := range rleIndices {
		got, err := format.ReadFullPlane(r, no)
		if err != nil {
			t.Fatalf("plane %d: %v", no, err)
		}
		if !bytes.Equal(got, expand(indices)) {
			t.Errorf("plane %d: expected %v, got %v", no, expand(indices), got)
		}
	}
	// repeated and sub-region reads of the last plane keep the sequence intact
	got, err := r.ReadPlane(2, 0, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, expand([]byte{6})) {
		t.Errorf("bad region %v", got)
	}
}

func TestSeekPolicies(t *testing.T) {
	path := writeMovie(t, rleMovie())
	cases := []struct {
		policy codec.SeekPolicy
		want   []byte
		fails  bool
	}{
		{codec.SeekAsReference, expand([]byte{0, 4, 4, 0, 0, 0, 0, 0}), false},
		{codec.SeekReplay, expand(rleIndices[1]), false},
		{codec.SeekFail, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			r := New()
			r.SetSeekPolicy(tc.policy)
			if err := r.Open(path); err != nil {
				t.Fatal(err)
			}
			defer r.Close(false)
			got, err := format.ReadFullPlane(r, 1)
			if tc.fails {
				if !bio.IsSeek(err) {
					t.Fatalf("expected seek error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}

			dup, err := r.Duplicate()
			if err != nil {
				t.Fatal(err)
			}
			defer dup.Close(false)
			if p := format.Unwrap(dup).(*Reader).SeekPolicy(); p != tc.policy {
				t.Errorf("duplicate has policy %s", p)
			}
		})
	}
}

func TestEmptyFrames(t *testing.T) {
	first := tests.Ramp(4, 1)
	m := movie{width: 2, height: 2, bits: 8, frames: [][]byte{{}, raw(first, 2, 2, 1), {}}}
	r := openMovie(t, m)
	defer r.Close(false)
	if r.ImageCount() != 3 || r.FrameCount() != 3 {
		t.Fatalf("expected 3 planes, got %d", r.ImageCount())
	}
	if r.Descriptor().Indexed {
		t.Errorf("gray frames without a color table should not be indexed")
	}
	want := [][]byte{make([]byte, 4), first, first}
	for no := range want {
		got, err := format.ReadFullPlane(r, no)
		if err != nil {
			t.Fatalf("plane %d: %v", no, err)
		}
		if !bytes.Equal(got, want[no]) {
			t.Errorf("plane %d: expected %v, got %v", no, want[no], got)
		}
	}
}

func TestDetection(t *testing.T) {
	data := rleMovie().bytes()
	r := New()
	if !r.IsThisBlock(data[:12]) {
		t.Errorf("AVI block not recognized")
	}
	wave := tests.Chunk{ID: "RIFF", Form: "WAVE", Children: []tests.Chunk{{ID: "data", Data: []byte{0, 0}}}}
	if r.IsThisBlock(wave.Bytes()) {
		t.Errorf("WAVE file recognized as AVI")
	}
	c := stream.NewCursor(stream.FromBytes("movie", data))
	c.Seek(20)
	if !r.IsThisStream(c) || c.Offset() != 20 {
		t.Errorf("stream detection failed or moved the cursor to %d", c.Offset())
	}
	if !r.IsThisName("clip.AVI", false) {
		t.Errorf("suffix not recognized")
	}

	reg := format.NewRegistry(Handler())
	path := writeMovie(t, rleMovie())
	opened, err := reg.Open(path, format.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer opened.Close(false)
	if opened.Format() != Name || opened.ImageCount() != 3 {
		t.Errorf("registry opened %s with %d planes", opened.Format(), opened.ImageCount())
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	xvid := rleMovie()
	xvid.compression = 0x44495658 // "XVID"
	err := New().Open(write("xvid.avi", xvid.bytes()))
	if !errors.Is(err, bio.ErrUnsupported) {
		t.Errorf("expected unsupported compression, got %v", err)
	}

	err = New().Open(write("empty.avi", movie{width: 2, height: 2, bits: 8}.bytes()))
	if !bio.IsDecode(err) {
		t.Errorf("expected decode error for a movie without frames, got %v", err)
	}

	err = New().Open(write("junk.avi", []byte("this is not a movie file")))
	if !bio.IsSignature(err) {
		t.Errorf("expected signature error, got %v", err)
	}

	short := movie{width: 4, height: 4, bits: 8, frames: [][]byte{make([]byte, 3)}}
	r := New()
	if err := r.Open(write("short.avi", short.bytes())); err != nil {
		t.Fatal(err)
	}
	if _, err := format.ReadFullPlane(r, 0); !bio.IsDecode(err) {
		t.Errorf("expected decode error for a short frame, got %v", err)
	}
	if _, err := r.ReadPlane(1, 0, 0, 1, 1); !bio.IsRange(err) {
		t.Errorf("expected range error, got %v", err)
	}
	r.Close(false)
	if _, err := r.ReadPlane(0, 0, 0, 1, 1); !errors.Is(err, bio.ErrNotInitialized) {
		t.Errorf("expected not initialized, got %v", err)
	}
}
