package incell

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/tests"
)

// frm returns a .frm file with a width x 2 image whose pixel words follow a
// 32-byte header.
func frm(width int, words ...uint16) []byte {
	header := make([]byte, 32)
	le := binary.LittleEndian
	le.PutUint16(header[0:], 32)
	le.PutUint16(header[2:], uint16(width))
	le.PutUint16(header[4:], 48) // 16 planes of 2 lines
	header[6] = 2
	le.PutUint32(header[8:], 1234)
	le.PutUint32(header[20:], math.Float32bits(2.5))
	return append(header, tests.LE16(words...)...)
}

var pixelWords = []uint16{
	100, 200,
	runFlag + 5, 1000, 1 | 2<<5 | 3<<10, 4 | 5<<5,
	runFlag,
}

var pixels = []uint16{100, 200, 1001, 1002, 1003, 1004, 1005, runFlag}

func TestUnpack(t *testing.T) {
	got, err := Unpack(tests.LE16(pixelWords...), len(pixels))
	if err != nil {
		t.Fatal(err)
	}
	if want := tests.LE16(pixels...); !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// runs stop at the requested pixel count
	got, err = Unpack(tests.LE16(pixelWords...), 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := tests.LE16(pixels[:4]...); !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, src := range [][]uint16{{1, 2}, {runFlag + 4, 7}, {runFlag + 4, 7, 0}} {
		if _, err := Unpack(tests.LE16(src...), 4); !errors.Is(err, codec.ErrTruncated) {
			t.Errorf("%v: expected truncation, got %v", src, err)
		}
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "well.frm")
	if err := os.WriteFile(path, frm(4, pixelWords...), 0644); err != nil {
		t.Fatal(err)
	}
	r := New()
	if !r.IsThisName(path, false) {
		t.Errorf("suffix not recognized")
	}
	if err := r.Open(path); err != nil {
		t.Fatal(err)
	}
	defer r.Close(false)

	d := r.Descriptor()
	if d.SizeX != 4 || d.SizeY != 2 || d.ImageCount != 1 || d.PixelType != bio.Uint16 || !d.LittleEndian {
		t.Fatalf("bad descriptor %+v", d)
	}
	plane, err := format.ReadFullPlane(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := tests.LE16(pixels...); !bytes.Equal(plane, want) {
		t.Errorf("expected %v, got %v", want, plane)
	}
	region, err := r.ReadPlane(0, 1, 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := tests.LE16(1004, 1005); !bytes.Equal(region, want) {
		t.Errorf("expected %v, got %v", want, region)
	}
	md := r.GlobalMetadata()
	if md["Timestamp"] != int32(1234) || md["Z section"] != float32(2.5) {
		t.Errorf("bad metadata %v", md)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]byte{
		"short.frm":     frm(4, 1, 2, 3),
		"offset.frm":    frm(4)[:32],
		"header.frm":    make([]byte, 10),
		"zerowidth.frm": frm(0, pixelWords...),
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		r := New()
		err := r.Open(path)
		if err == nil {
			_, err = format.ReadFullPlane(r, 0)
			r.Close(false)
		}
		if !bio.IsDecode(err) {
			t.Errorf("%s: expected decode error, got %v", name, err)
		}
	}
}
