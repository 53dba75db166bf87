package bio

import (
	"bytes"
	"errors"

	. "github.com/janelia-flyem/go/gocheck"
)

type UtilSuite struct{}

var _ = Suite(&UtilSuite{})

func (s *UtilSuite) TestSerializeData(c *C) {
	data := bytes.Repeat([]byte("plane data that compresses well "), 64)
	random := []byte{0x33, 0x18, 0xD0, 0x92, 0x01}
	for _, compression := range []Compression{Uncompressed, Snappy, LZ4, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			for _, in := range [][]byte{data, random} {
				ser, err := SerializeData(in, compression, checksum)
				c.Assert(err, IsNil)
				out, comp, err := DeserializeData(ser, true)
				c.Assert(err, IsNil)
				c.Assert(comp, Equals, compression)
				c.Assert(out, DeepEquals, in)

				if checksum != NoChecksum {
					ser[len(ser)-1] ^= 0x04 // Flip a bit
					_, _, err = DeserializeData(ser, true)
					c.Assert(err, NotNil)
				}
			}
		}
	}
	_, _, err := DeserializeData(nil, true)
	c.Assert(err, NotNil)
}

func (s *UtilSuite) TestParseCompression(c *C) {
	comp, err := ParseCompression("zstd")
	c.Assert(err, IsNil)
	c.Assert(comp, Equals, Zstd)
	_, err = ParseCompression("gzip")
	c.Assert(err, NotNil)
}

func (s *UtilSuite) TestPixelType(c *C) {
	c.Assert(Uint16.Bytes(), Equals, 2)
	c.Assert(Float64.Bytes(), Equals, 8)
	c.Assert(Int8.Signed(), Equals, true)
	c.Assert(Uint32.Signed(), Equals, false)
	pt, err := PixelTypeFromBytes(2, true, false)
	c.Assert(err, IsNil)
	c.Assert(pt, Equals, Int16)
	pt, err = PixelTypeFromBytes(4, false, true)
	c.Assert(err, IsNil)
	c.Assert(pt, Equals, Float32)
	_, err = PixelTypeFromBytes(3, false, false)
	c.Assert(err, NotNil)

	b, err := Uint16.MarshalJSON()
	c.Assert(err, IsNil)
	c.Assert(string(b), Equals, `"uint16"`)
	var back PixelType
	c.Assert(back.UnmarshalJSON(b), IsNil)
	c.Assert(back, Equals, Uint16)
}

func (s *UtilSuite) TestSanitize(c *C) {
	c.Assert(Sanitize("  Objective\x01 40x\x00garbage"), Equals, "Objective 40x")
	c.Assert(Sanitize("line1\nline2"), Equals, "line1 line2")
}

func (s *UtilSuite) TestErrors(c *C) {
	err := NewDecodeError("a.tif", 64, "bad entry count %d", 0)
	c.Assert(IsDecode(err), Equals, true)
	c.Assert(err.Error(), Equals, "bad data in a.tif at offset 64: bad entry count 0")
	c.Assert(WrapDecodeError("b.tif", 8, err), Equals, err)
	c.Assert(WrapDecodeError("b.tif", 8, nil), IsNil)

	wrapped := WrapDecodeError("b.tif", -1, errors.New("short read"))
	c.Assert(wrapped.Error(), Equals, "bad data in b.tif: short read")

	c.Assert(IsMissingFile(&MissingFileError{File: "x"}), Equals, true)
	c.Assert(IsSignature(&SignatureError{Format: "TIFF"}), Equals, true)
	c.Assert(IsSeek(&SeekError{Codec: "MSRLE", Plane: 3, Last: 0}), Equals, true)
	c.Assert(IsRange(errors.New("x")), Equals, false)

	m, err := ParseLogMode("Warning")
	c.Assert(err, IsNil)
	c.Assert(m, Equals, WarningMode)
}
