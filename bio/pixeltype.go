/*
   This file handles the scalar sample types of pixel data.
*/

package bio

import (
	"encoding/json"
	"fmt"
)

// PixelType is the scalar type of one pixel sample.
type PixelType uint8

const (
	Uint8 PixelType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
	Bit
)

var typeBytes = map[PixelType]int{
	Uint8:   1,
	Int8:    1,
	Uint16:  2,
	Int16:   2,
	Uint32:  4,
	Int32:   4,
	Float32: 4,
	Float64: 8,
	Bit:     1,
}

var typeNames = map[PixelType]string{
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Float32: "float",
	Float64: "double",
	Bit:     "bit",
}

// Bytes returns the number of bytes of storage for one sample.  Bit data is
// unpacked to one byte per sample.
func (t PixelType) Bytes() int {
	return typeBytes[t]
}

func (t PixelType) String() string {
	name, found := typeNames[t]
	if !found {
		return fmt.Sprintf("pixeltype(%d)", uint8(t))
	}
	return name
}

func (t PixelType) Signed() bool {
	return t == Int8 || t == Int16 || t == Int32 || t == Float32 || t == Float64
}

func (t PixelType) Float() bool {
	return t == Float32 || t == Float64
}

// ParsePixelType returns the type with the given name, e.g., "uint16".
func ParsePixelType(s string) (PixelType, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	}
	return Uint8, fmt.Errorf("Unknown pixel type %q", s)
}

// PixelTypeFromBytes returns the integer or floating point type of the given
// storage size in bytes.
func PixelTypeFromBytes(n int, signed, float bool) (PixelType, error) {
	switch {
	case float && n == 4:
		return Float32, nil
	case float && n == 8:
		return Float64, nil
	case float:
		return Uint8, fmt.Errorf("No floating point pixel type with %d bytes", n)
	}
	switch n {
	case 1:
		if signed {
			return Int8, nil
		}
		return Uint8, nil
	case 2:
		if signed {
			return Int16, nil
		}
		return Uint16, nil
	case 4:
		if signed {
			return Int32, nil
		}
		return Uint32, nil
	}
	return Uint8, fmt.Errorf("No integer pixel type with %d bytes", n)
}

// MarshalJSON implements the json.Marshaler interface.
func (t PixelType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *PixelType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	pt, err := ParsePixelType(s)
	if err != nil {
		return err
	}
	*t = pt
	return nil
}
