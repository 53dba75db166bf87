package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/bioio/bio"

	"gocloud.dev/blob/memblob"
)

func testBytes() []byte {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	b = append(b, []byte("name\x00pad")...)
	return b
}

func TestCursorTypedReads(t *testing.T) {
	c := NewCursor(FromBytes("mem", testBytes()))
	v16, err := c.ReadUint16()
	if err != nil || v16 != 0x0201 {
		t.Fatalf("expected 0x0201, got %x (%v)", v16, err)
	}
	c.SetOrder(binary.BigEndian)
	v16, err = c.ReadUint16()
	if err != nil || v16 != 0x0304 {
		t.Fatalf("expected 0x0304, got %x (%v)", v16, err)
	}
	if c.Offset() != 4 {
		t.Fatalf("expected offset 4, got %d", c.Offset())
	}
	v32, err := c.Uint32At(0)
	if err != nil || v32 != 0x01020304 {
		t.Fatalf("expected 0x01020304, got %x (%v)", v32, err)
	}
	if c.Offset() != 4 {
		t.Fatalf("absolute read moved cursor to %d", c.Offset())
	}
	if err := c.Seek(8); err != nil {
		t.Fatal(err)
	}
	s, err := c.ReadString(8)
	if err != nil || s != "name" {
		t.Fatalf("expected \"name\", got %q (%v)", s, err)
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected end of data, %d bytes remain", c.Remaining())
	}
}

func TestCursorShortRead(t *testing.T) {
	c := NewCursor(FromBytes("short.bin", []byte{1, 2, 3}))
	if err := c.Skip(2); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReadUint32()
	if !bio.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF cause, got %v", err)
	}
	if c.Offset() != 2 {
		t.Fatalf("failed read moved cursor to %d", c.Offset())
	}
	if err := c.Seek(4); err == nil {
		t.Fatalf("expected error seeking past end")
	}
	if _, err := c.BytesAt(1, 5); err == nil {
		t.Fatalf("expected error reading past end")
	}
}

func TestCursorMark(t *testing.T) {
	c := NewCursor(FromBytes("mem", testBytes()))
	c.Skip(3)
	restore := c.Mark()
	c.SetOrder(binary.BigEndian)
	c.ReadFull(5)
	restore()
	if c.Offset() != 3 || !c.LittleEndian() {
		t.Fatalf("mark did not restore state: offset %d little %t", c.Offset(), c.LittleEndian())
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plane.raw")
	if err := os.WriteFile(path, testBytes(), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.Size() != int64(len(testBytes())) {
		t.Fatalf("bad size %d", src.Size())
	}
	if got := Sniff(src, 4); string(got) != "\x01\x02\x03\x04" {
		t.Fatalf("bad sniff %v", got)
	}
	_, err = OpenFile(filepath.Join(dir, "missing.raw"))
	if !bio.IsMissingFile(err) {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestBucketSource(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	if err := bucket.WriteAll(ctx, "plate/A01.tif", testBytes(), nil); err != nil {
		t.Fatal(err)
	}
	src, err := FromBucket(ctx, bucket, "plate/A01.tif")
	if err != nil {
		t.Fatal(err)
	}
	c := NewCursor(src)
	c.Seek(4)
	v, err := c.ReadUint32()
	if err != nil || v != 0x08070605 {
		t.Fatalf("expected 0x08070605, got %x (%v)", v, err)
	}
	if _, err := c.BytesAt(14, 4); err == nil {
		t.Fatalf("expected error reading past end of object")
	}
	if _, err := FromBucket(ctx, bucket, "plate/B02.tif"); !bio.IsMissingFile(err) {
		t.Fatalf("expected missing file error, got %v", err)
	}
}
