/*
	This file supports serialization and compression of cached plane data.
*/

package bio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the format of compression for serialized data.
// NOTE: Should be no more than 8 (3 bits) of compression types.
type Compression uint8

const (
	Uncompressed Compression = iota
	Snappy
	LZ4
	Zstd
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	case LZ4:
		return "LZ4 compression"
	case Zstd:
		return "Zstandard compression"
	default:
		return "Unknown compression"
	}
}

// ParseCompression returns the compression for names "none", "snappy", "lz4" and "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return Uncompressed, nil
	case "snappy":
		return Snappy, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	}
	return Uncompressed, fmt.Errorf("Unknown compression %q", s)
}

// Checksum is the type of checksum employed for error checking serialized data.
// NOTE: Should be no more than 4 (2 bits) of checksum types.
type Checksum uint8

const (
	NoChecksum Checksum = iota
	CRC32
)

func (checksum Checksum) String() string {
	switch checksum {
	case NoChecksum:
		return "No checksum"
	case CRC32:
		return "CRC32 checksum"
	default:
		return "Unknown checksum"
	}
}

// SerializationFormat is a single byte combining both compression and checksum methods.
type SerializationFormat uint8

func EncodeSerializationFormat(compress Compression, checksum Checksum) SerializationFormat {
	a := (uint8(compress) & 0x07) << 5
	b := (uint8(checksum) & 0x03) << 3
	return SerializationFormat(a | b)
}

func DecodeSerializationFormat(s SerializationFormat) (compress Compression, checksum Checksum) {
	compress = Compression(uint8(s) >> 5)
	checksum = Checksum((uint8(s) >> 3) & 0x03)
	return
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
}

// lz4Raw flags an LZ4 payload stored uncompressed because it did not shrink.
const lz4Raw = 1 << 31

// SerializeData serializes a slice of bytes using optional compression, checksum.
func SerializeData(data []byte, compress Compression, checksum Checksum) (s []byte, err error) {
	var buffer bytes.Buffer
	buffer.WriteByte(byte(EncodeSerializationFormat(compress, checksum)))

	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	case LZ4:
		byteData = make([]byte, 4+lz4.CompressBlockBound(len(data)))
		var outSize int
		outSize, err = lz4.CompressBlock(data, byteData[4:], nil)
		if err != nil {
			return
		}
		if outSize == 0 {
			binary.LittleEndian.PutUint32(byteData[0:4], uint32(len(data))|lz4Raw)
			byteData = append(byteData[:4], data...)
		} else {
			binary.LittleEndian.PutUint32(byteData[0:4], uint32(len(data)))
			byteData = byteData[:4+outSize]
		}
	case Zstd:
		initZstd()
		if zstdErr != nil {
			return nil, zstdErr
		}
		byteData = zstdEncoder.EncodeAll(data, nil)
	default:
		return nil, fmt.Errorf("Illegal compression (%s) during serialization", compress)
	}

	switch checksum {
	case NoChecksum:
	case CRC32:
		var crc [4]byte
		binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(byteData))
		buffer.Write(crc[:])
	default:
		return nil, fmt.Errorf("Illegal checksum (%s) during serialization", checksum)
	}
	// Data is written last, after any checksum, so no length is needed.
	buffer.Write(byteData)
	return buffer.Bytes(), nil
}

// DeserializeData deserializes a slice of bytes using stored compression, checksum.
// If uncompress parameter is false, the data is not uncompressed.
func DeserializeData(s []byte, uncompress bool) (data []byte, compress Compression, err error) {
	if len(s) == 0 {
		err = fmt.Errorf("Cannot deserialize empty data")
		return
	}
	var checksum Checksum
	compress, checksum = DecodeSerializationFormat(SerializationFormat(s[0]))
	cdata := s[1:]

	switch checksum {
	case NoChecksum:
	case CRC32:
		if len(cdata) < 4 {
			err = fmt.Errorf("Serialized data too short for checksum")
			return
		}
		stored := binary.LittleEndian.Uint32(cdata[0:4])
		cdata = cdata[4:]
		if got := crc32.ChecksumIEEE(cdata); got != stored {
			err = fmt.Errorf("Bad checksum.  Stored %x got %x", stored, got)
			return
		}
	default:
		err = fmt.Errorf("Illegal checksum in deserializing data")
		return
	}

	if !uncompress {
		data = cdata
		return
	}
	switch compress {
	case Uncompressed:
		data = cdata
	case Snappy:
		data, err = snappy.Decode(nil, cdata)
	case LZ4:
		if len(cdata) < 4 {
			err = fmt.Errorf("LZ4 data too short")
			return
		}
		header := binary.LittleEndian.Uint32(cdata[0:4])
		origSize := int(header &^ lz4Raw)
		if header&lz4Raw != 0 {
			data = cdata[4:]
			return
		}
		data = make([]byte, origSize)
		var n int
		n, err = lz4.UncompressBlock(cdata[4:], data)
		if err == nil && n != origSize {
			err = fmt.Errorf("LZ4 expected %d bytes, got %d", origSize, n)
		}
	case Zstd:
		initZstd()
		if zstdErr != nil {
			err = zstdErr
			return
		}
		data, err = zstdDecoder.DecodeAll(cdata, nil)
	default:
		err = fmt.Errorf("Illegal compression format (%d) in deserialization", compress)
	}
	return
}
