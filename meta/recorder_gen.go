package meta

import (
	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg implements msgp.Marshaler
func (z Field) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 4)
	o = msgp.AppendString(o, z.Name)
	o = msgp.AppendInt(o, z.Series)
	o = msgp.AppendInt(o, z.Index)
	o, err = msgp.AppendIntf(o, z.Value)
	if err != nil {
		return
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Field) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if asz != 4 {
		err = msgp.ArrayError{Wanted: 4, Got: asz}
		return
	}
	z.Name, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	z.Series, bts, err = msgp.ReadIntBytes(bts)
	if err != nil {
		return
	}
	z.Index, bts, err = msgp.ReadIntBytes(bts)
	if err != nil {
		return
	}
	z.Value, bts, err = msgp.ReadIntfBytes(bts)
	if err != nil {
		return
	}
	o = bts
	return
}

func (z Field) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + msgp.StringPrefixSize + len(z.Name) + 2*msgp.IntSize + msgp.GuessSize(z.Value)
	return
}

// MarshalMsg implements msgp.Marshaler
func (r *Recorder) MarshalMsg(b []byte) (o []byte, err error) {
	fields := r.Fields()
	o = msgp.Require(b, msgp.ArrayHeaderSize)
	o = msgp.AppendArrayHeader(o, uint32(len(fields)))
	for xvk := range fields {
		o, err = fields[xvk].MarshalMsg(o)
		if err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler.  Decoded fields are added to the
// Recorder.
func (r *Recorder) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	for i := uint32(0); i < asz; i++ {
		var f Field
		bts, err = f.UnmarshalMsg(bts)
		if err != nil {
			return
		}
		r.set(f.Name, f.Series, f.Index, f.Value)
	}
	o = bts
	return
}

func (r *Recorder) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize
	for _, f := range r.Fields() {
		s += f.Msgsize()
	}
	return
}
