package fipsig

import (
	"errors"

	"github.com/flint-lang/fip/pkg/fiptype"
	"github.com/flint-lang/fip/pkg/fipwire"
)

// ErrMalformed is returned when a signature's length-prefixed sub-field
// is inconsistent with the declared frame.
var ErrMalformed = errors.New("fipsig: malformed signature")

func writeShortString(w *fipwire.Writer, s string) error {
	if len(s) > 255 {
		return ErrMalformed
	}
	if err := w.U8(byte(len(s))); err != nil {
		return err
	}
	return w.Bytes([]byte(s))
}

func readShortString(r *fipwire.Reader) (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode writes fn's wire form. Note the deliberate redundancy:
// is_mutable is written once here, immediately before each
// argument/return Type, and again inside that Type's own header. Both
// copies are part of the wire format and must not be collapsed.
func (fn *FnSig) Encode(w *fipwire.Writer) error {
	if err := w.FixedString(fn.Name, NameFieldSize); err != nil {
		return err
	}
	if len(fn.Args) > 255 || len(fn.Rets) > 255 {
		return ErrMalformed
	}
	if err := w.U8(byte(len(fn.Args))); err != nil {
		return err
	}
	for _, a := range fn.Args {
		if err := w.Bool(a.IsMutable); err != nil {
			return err
		}
		if err := a.Encode(w); err != nil {
			return err
		}
	}
	if err := w.U8(byte(len(fn.Rets))); err != nil {
		return err
	}
	for _, r := range fn.Rets {
		if err := w.Bool(r.IsMutable); err != nil {
			return err
		}
		if err := r.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeFnSig mirrors Encode, reading and discarding the duplicated
// outer is_mutable byte (the Type's own header carries the value that
// is actually used).
func DecodeFnSig(r *fipwire.Reader) (*FnSig, error) {
	name, err := r.FixedString(NameFieldSize)
	if err != nil {
		return nil, err
	}
	fn := &FnSig{Name: name}

	argc, err := r.U8()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(argc); i++ {
		if _, err := r.Bool(); err != nil {
			return nil, err
		}
		t, err := fiptype.Decode(r)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, t)
	}

	retc, err := r.U8()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(retc); i++ {
		if _, err := r.Bool(); err != nil {
			return nil, err
		}
		t, err := fiptype.Decode(r)
		if err != nil {
			return nil, err
		}
		fn.Rets = append(fn.Rets, t)
	}

	return fn, nil
}

// Encode writes d: name, value_count, then all value names, then all
// value types (a struct-of-arrays layout, not interleaved name/type
// pairs).
func (d *DataSig) Encode(w *fipwire.Writer) error {
	if err := w.FixedString(d.Name, NameFieldSize); err != nil {
		return err
	}
	if len(d.Values) > 255 {
		return ErrMalformed
	}
	if err := w.U8(byte(len(d.Values))); err != nil {
		return err
	}
	for _, v := range d.Values {
		if err := writeShortString(w, v.Name); err != nil {
			return err
		}
	}
	for _, v := range d.Values {
		if err := v.Type.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataSig mirrors Encode.
func DecodeDataSig(r *fipwire.Reader) (*DataSig, error) {
	name, err := r.FixedString(NameFieldSize)
	if err != nil {
		return nil, err
	}
	count, err := r.U8()
	if err != nil {
		return nil, err
	}

	names := make([]string, count)
	for i := range names {
		names[i], err = readShortString(r)
		if err != nil {
			return nil, err
		}
	}

	d := &DataSig{Name: name}
	for i := 0; i < int(count); i++ {
		t, err := fiptype.Decode(r)
		if err != nil {
			return nil, err
		}
		d.Values = append(d.Values, DataSigValue{Name: names[i], Type: t})
	}
	return d, nil
}

// Encode writes e: name, primitive type byte, value_count, tags, pad
// to 8, then the raw u64 values.
func (e *EnumSig) Encode(w *fipwire.Writer) error {
	if err := w.FixedString(e.Name, NameFieldSize); err != nil {
		return err
	}
	if err := w.U8(byte(e.Type)); err != nil {
		return err
	}
	if len(e.Tags) != len(e.Values) {
		return ErrMalformed
	}
	if len(e.Values) > 255 {
		return ErrMalformed
	}
	if err := w.U8(byte(len(e.Values))); err != nil {
		return err
	}
	for _, tag := range e.Tags {
		if err := writeShortString(w, tag); err != nil {
			return err
		}
	}
	if err := w.PadTo8(); err != nil {
		return err
	}
	for _, v := range e.Values {
		if err := w.U64(v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEnumSig mirrors Encode.
func DecodeEnumSig(r *fipwire.Reader) (*EnumSig, error) {
	name, err := r.FixedString(NameFieldSize)
	if err != nil {
		return nil, err
	}
	pb, err := r.U8()
	if err != nil {
		return nil, err
	}
	prim := fiptype.PrimitiveKind(pb)

	count, err := r.U8()
	if err != nil {
		return nil, err
	}

	tags := make([]string, count)
	for i := range tags {
		tags[i], err = readShortString(r)
		if err != nil {
			return nil, err
		}
	}

	if err := r.PadTo8(); err != nil {
		return nil, err
	}

	values := make([]uint64, count)
	for i := range values {
		values[i], err = r.U64()
		if err != nil {
			return nil, err
		}
	}

	return &EnumSig{Name: name, Type: prim, Tags: tags, Values: values}, nil
}
