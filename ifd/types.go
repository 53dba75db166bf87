package ifd

import "fmt"

// Type is the value type of a directory entry.
type Type uint16

const (
	Byte      Type = 1
	ASCII     Type = 2
	Short     Type = 3
	Long      Type = 4
	Rational  Type = 5
	SByte     Type = 6
	Undefined Type = 7
	SShort    Type = 8
	SLong     Type = 9
	SRational Type = 10
	Float     Type = 11
	Double    Type = 12
	IFD       Type = 13
	Long8     Type = 16
	SLong8    Type = 17
	IFD8      Type = 18
)

var typeSizes = map[Type]int{
	Byte:      1,
	ASCII:     1,
	Short:     2,
	Long:      4,
	Rational:  8,
	SByte:     1,
	Undefined: 1,
	SShort:    2,
	SLong:     4,
	SRational: 8,
	Float:     4,
	Double:    8,
	IFD:       4,
	Long8:     8,
	SLong8:    8,
	IFD8:      8,
}

var typeNames = map[Type]string{
	Byte:      "BYTE",
	ASCII:     "ASCII",
	Short:     "SHORT",
	Long:      "LONG",
	Rational:  "RATIONAL",
	SByte:     "SBYTE",
	Undefined: "UNDEFINED",
	SShort:    "SSHORT",
	SLong:     "SLONG",
	SRational: "SRATIONAL",
	Float:     "FLOAT",
	Double:    "DOUBLE",
	IFD:       "IFD",
	Long8:     "LONG8",
	SLong8:    "SLONG8",
	IFD8:      "IFD8",
}

// Size returns the byte size of one value of the type, or 0 for unknown types.
func (t Type) Size() int {
	return typeSizes[t]
}

func (t Type) Valid() bool {
	_, found := typeSizes[t]
	return found
}

func (t Type) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("type(%d)", uint16(t))
}

func (t Type) signed() bool {
	return t == SByte || t == SShort || t == SLong || t == SRational || t == SLong8
}

func (t Type) integer() bool {
	switch t {
	case Byte, Short, Long, SByte, Undefined, SShort, SLong, IFD, Long8, SLong8, IFD8:
		return true
	}
	return false
}
