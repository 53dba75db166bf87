package ifd

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Entry is one decoded directory entry.  Raw holds Count values of Type in the
// byte order of the file.
type Entry struct {
	Tag   uint16
	Type  Type
	Count uint64

	// Offset is where the values were read from, either inside the entry
	// itself or out of line.
	Offset int64

	Raw   []byte
	order binary.ByteOrder
}

func (e Entry) String() string {
	return fmt.Sprintf("tag %d (%s x %d)", e.Tag, e.Type, e.Count)
}

func (e Entry) Order() binary.ByteOrder {
	return e.order
}

func (e Entry) rawUint(i int) uint64 {
	sz := e.Type.Size()
	p := e.Raw[i*sz : (i+1)*sz]
	switch sz {
	case 1:
		return uint64(p[0])
	case 2:
		return uint64(e.order.Uint16(p))
	case 4:
		return uint64(e.order.Uint32(p))
	default:
		return e.order.Uint64(p)
	}
}

func (e Entry) rawInt(i int) int64 {
	u := e.rawUint(i)
	switch e.Type.Size() {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func (e Entry) n() int {
	sz := e.Type.Size()
	if sz == 0 {
		return 0
	}
	return len(e.Raw) / sz
}

// Uints returns the values of an integer entry.  Signed values are converted.
func (e Entry) Uints() ([]uint64, error) {
	if !e.Type.integer() {
		return nil, fmt.Errorf("%s is not an integer entry", e)
	}
	vals := make([]uint64, e.n())
	for i := range vals {
		if e.Type.signed() {
			vals[i] = uint64(e.rawInt(i))
		} else {
			vals[i] = e.rawUint(i)
		}
	}
	return vals, nil
}

// Uint returns the first value of an integer entry.
func (e Entry) Uint() (uint64, error) {
	if e.n() == 0 {
		return 0, fmt.Errorf("%s has no values", e)
	}
	vals, err := e.Uints()
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// Ints returns the values of an integer entry as signed integers.
func (e Entry) Ints() ([]int64, error) {
	if !e.Type.integer() {
		return nil, fmt.Errorf("%s is not an integer entry", e)
	}
	vals := make([]int64, e.n())
	for i := range vals {
		if e.Type.signed() {
			vals[i] = e.rawInt(i)
		} else {
			vals[i] = int64(e.rawUint(i))
		}
	}
	return vals, nil
}

// Rationals returns numerator, denominator pairs of a rational entry.
func (e Entry) Rationals() ([][2]int64, error) {
	if e.Type != Rational && e.Type != SRational {
		return nil, fmt.Errorf("%s is not a rational entry", e)
	}
	vals := make([][2]int64, e.n())
	for i := range vals {
		p := e.Raw[i*8 : i*8+8]
		num, den := e.order.Uint32(p[0:4]), e.order.Uint32(p[4:8])
		if e.Type == SRational {
			vals[i] = [2]int64{int64(int32(num)), int64(int32(den))}
		} else {
			vals[i] = [2]int64{int64(num), int64(den)}
		}
	}
	return vals, nil
}

// Floats converts any numeric entry to float64 values.  Rationals with a zero
// denominator become 0.
func (e Entry) Floats() ([]float64, error) {
	switch e.Type {
	case Float:
		vals := make([]float64, e.n())
		for i := range vals {
			vals[i] = float64(math.Float32frombits(uint32(e.rawUint(i))))
		}
		return vals, nil
	case Double:
		vals := make([]float64, e.n())
		for i := range vals {
			vals[i] = math.Float64frombits(e.rawUint(i))
		}
		return vals, nil
	case Rational, SRational:
		rats, _ := e.Rationals()
		vals := make([]float64, len(rats))
		for i, r := range rats {
			if r[1] != 0 {
				vals[i] = float64(r[0]) / float64(r[1])
			}
		}
		return vals, nil
	}
	ints, err := e.Ints()
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(ints))
	for i, v := range ints {
		vals[i] = float64(v)
	}
	return vals, nil
}

// Strings splits an ASCII entry on its NUL terminators.
func (e Entry) Strings() []string {
	s := strings.TrimRight(string(e.Raw), "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}

// Text returns the NUL-separated strings of an ASCII entry joined by newlines.
func (e Entry) Text() string {
	return strings.Join(e.Strings(), "\n")
}

// Value returns a generic representation used for original metadata tables:
// a string for ASCII, a scalar for single values and a slice otherwise.
func (e Entry) Value() interface{} {
	if e.Type == ASCII {
		return e.Text()
	}
	if e.Type == Undefined {
		return e.Raw
	}
	var vals interface{}
	var n int
	switch {
	case e.Type.integer():
		v, _ := e.Ints()
		if len(v) == 1 {
			return v[0]
		}
		vals, n = v, len(v)
	default:
		v, _ := e.Floats()
		if len(v) == 1 {
			return v[0]
		}
		vals, n = v, len(v)
	}
	if n == 0 {
		return nil
	}
	return vals
}
