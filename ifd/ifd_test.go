package ifd

import (
	"encoding/binary"
	"testing"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/stream"
	"github.com/janelia-flyem/bioio/tests"
)

func sampleDirectory() []tests.TIFFEntry {
	return []tests.TIFFEntry{
		tests.Shorts(257, 3),
		tests.Longs(256, 4),
		tests.Text(270, "synthetic\x00second"),
		tests.Shorts(258, 8, 8, 8),
		tests.Rationals(282, [2]uint32{72, 1}),
		tests.Longs(273, 100, 200, 300),
	}
}

func TestReadDirectory(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, big := range []bool{false, true} {
			b := tests.NewTIFFBuilder(order, big)
			b.AddDirectory(sampleDirectory()...)
			data, offsets := b.Bytes()

			c := stream.NewCursor(stream.FromBytes("sample.tif", data))
			hdr, err := ReadHeader(c)
			if err != nil {
				t.Fatalf("order %s big %t: %v", order, big, err)
			}
			if hdr.BigTIFF != big || hdr.Order != order || hdr.FirstOffset != offsets[0] {
				t.Fatalf("bad header %+v", hdr)
			}
			dir, err := ReadDirectory(c, hdr.FirstOffset, big)
			if err != nil {
				t.Fatal(err)
			}
			if dir.Next != 0 {
				t.Errorf("expected end of chain, got next %d", dir.Next)
			}
			tags := dir.Tags()
			for i := 1; i < len(tags); i++ {
				if tags[i-1] >= tags[i] {
					t.Fatalf("tags not sorted: %v", tags)
				}
			}
			if v, err := dir.Uint(256, 0); err != nil || v != 4 {
				t.Errorf("width: expected 4, got %d (%v)", v, err)
			}
			if v, err := dir.Uint(999, 7); err != nil || v != 7 {
				t.Errorf("missing tag should return default, got %d (%v)", v, err)
			}
			bits, err := dir.Uints(258)
			if err != nil || len(bits) != 3 || bits[2] != 8 {
				t.Errorf("bits per sample: got %v (%v)", bits, err)
			}
			strips, _ := dir.Uints(273)
			if len(strips) != 3 || strips[1] != 200 {
				t.Errorf("strip offsets: got %v", strips)
			}
			e, _ := dir.Entry(270)
			if s := e.Strings(); len(s) != 2 || s[1] != "second" {
				t.Errorf("description: got %q", s)
			}
			e, _ = dir.Entry(282)
			if f, err := e.Floats(); err != nil || f[0] != 72 {
				t.Errorf("resolution: got %v (%v)", f, err)
			}
			if v := e.Value(); v != 72.0 {
				t.Errorf("resolution value: got %v", v)
			}
		}
	}
}

func TestUnknownTypeIsWarning(t *testing.T) {
	b := tests.NewTIFFBuilder(binary.LittleEndian, false)
	b.AddDirectory(tests.Shorts(256, 4), tests.TIFFEntry{Tag: 300, Type: 99, Values: []uint8{1, 2}})
	data, _ := b.Bytes()
	c := stream.NewCursor(stream.FromBytes("warn.tif", data))
	hdr, err := ReadHeader(c)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := ReadDirectory(c, hdr.FirstOffset, false)
	if err != nil {
		t.Fatal(err)
	}
	if dir.Warnings == nil {
		t.Fatalf("expected warning for unknown type")
	}
	if dir.Has(300) || !dir.Has(256) {
		t.Fatalf("unexpected tags %v", dir.Tags())
	}
}

func TestChainCycle(t *testing.T) {
	b := tests.NewTIFFBuilder(binary.BigEndian, false)
	for i := 0; i < 4; i++ {
		b.AddDirectory(tests.Longs(256, uint32(i+1)))
	}
	b.Loops = map[int]int{3: 1}
	data, offsets := b.Bytes()
	c := stream.NewCursor(stream.FromBytes("cycle.tif", data))
	hdr, err := ReadHeader(c)
	if err != nil {
		t.Fatal(err)
	}
	chain := NewChain(c, hdr)
	var seen []int64
	for chain.Next() {
		seen = append(seen, chain.Directory().Offset)
	}
	if chain.Err() != nil {
		t.Fatal(chain.Err())
	}
	if len(seen) != 4 || chain.Visited() != 4 {
		t.Fatalf("expected 4 distinct directories, got %v", seen)
	}
	for i := range seen {
		if seen[i] != offsets[i] {
			t.Fatalf("directory %d at %d, expected %d", i, seen[i], offsets[i])
		}
	}
	if chain.Next() {
		t.Fatalf("chain restarted after ending")
	}
}

func TestChainSelfLoopAndBadNext(t *testing.T) {
	b := tests.NewTIFFBuilder(binary.LittleEndian, true)
	b.AddDirectory(tests.Longs(256, 1))
	b.Loops = map[int]int{0: 0}
	data, _ := b.Bytes()
	hdr, dirs, err := ReadAll(stream.NewCursor(stream.FromBytes("self.tif", data)))
	if err != nil || !hdr.BigTIFF || len(dirs) != 1 {
		t.Fatalf("expected one directory, got %d (%v)", len(dirs), err)
	}

	b = tests.NewTIFFBuilder(binary.LittleEndian, false)
	b.AddDirectory(tests.Longs(256, 1))
	b.AddDirectory(tests.Longs(256, 2))
	b.RawNext = map[int]int64{1: 1 << 30}
	data, _ = b.Bytes()
	_, dirs, err = ReadAll(stream.NewCursor(stream.FromBytes("past.tif", data)))
	if err != nil || len(dirs) != 2 {
		t.Fatalf("expected two directories, got %d (%v)", len(dirs), err)
	}
}

func TestChainKeepsHeaderOrder(t *testing.T) {
	b := tests.NewTIFFBuilder(binary.BigEndian, false)
	b.AddDirectory(tests.Shorts(256, 0x0102))
	data, _ := b.Bytes()
	c := stream.NewCursor(stream.FromBytes("order.tif", data))
	hdr, err := ReadHeader(c)
	if err != nil {
		t.Fatal(err)
	}
	c.SetOrder(binary.LittleEndian)
	chain := NewChain(c, hdr)
	if !chain.Next() {
		t.Fatal(chain.Err())
	}
	if v, _ := chain.Directory().Uint(256, 0); v != 0x0102 {
		t.Fatalf("expected big-endian value 0x0102, got %x", v)
	}
	if c.LittleEndian() != true {
		t.Fatalf("chain changed caller's byte order")
	}
}

func TestBadHeaders(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":    {},
		"nomark":   []byte("XX*\x00\x08\x00\x00\x00"),
		"badmagic": {'I', 'I', 41, 0, 8, 0, 0, 0},
	} {
		_, err := ReadHeader(stream.NewCursor(stream.FromBytes(name, data)))
		if !bio.IsSignature(err) {
			t.Errorf("%s: expected signature error, got %v", name, err)
		}
	}
	data := []byte{'I', 'I', 42, 0, 0xff, 0xff, 0, 0}
	_, err := ReadHeader(stream.NewCursor(stream.FromBytes("offset", data)))
	if !bio.IsDecode(err) {
		t.Errorf("expected decode error for bad first offset, got %v", err)
	}
	if !IsHeader([]byte("MM\x00*"), MagicTIFF) || IsHeader([]byte("MM\x00*"), MagicBigTIFF) {
		t.Errorf("bad IsHeader magic filtering")
	}
}

func TestTruncatedDirectory(t *testing.T) {
	b := tests.NewTIFFBuilder(binary.LittleEndian, false)
	b.AddDirectory(sampleDirectory()...)
	data, offsets := b.Bytes()
	data = data[:offsets[0]+20]
	_, _, err := ReadAll(stream.NewCursor(stream.FromBytes("trunc.tif", data)))
	if !bio.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestChunks(t *testing.T) {
	riff := tests.Chunk{ID: "RIFF", Form: "AVI ", Children: []tests.Chunk{
		{ID: "avih", Data: tests.LE(1, 2, 3)},
		{ID: "odd ", Data: []byte{1, 2, 3}},
		{ID: "LIST", Form: "movi", Children: []tests.Chunk{{ID: "00db", Data: []byte{9, 9}}}},
	}}
	data := riff.Bytes()
	if !IsContainer(data, "RIFF", "AVI ") || IsContainer(data, "RIFF", "WAVE") {
		t.Fatalf("bad container detection")
	}
	c := stream.NewCursor(stream.FromBytes("x.avi", data))
	top, err := ReadChunk(c)
	if err != nil || top.Form != "AVI " || top.End() != int64(len(data)) {
		t.Fatalf("bad top chunk %+v (%v)", top, err)
	}
	var ids []string
	for c.Offset() < top.End() {
		ch, err := ReadChunk(c)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, ch.ID)
		if err := c.Seek(ch.End()); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 3 || ids[2] != "LIST" {
		t.Fatalf("bad chunk walk %v", ids)
	}
}
