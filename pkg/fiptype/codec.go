package fiptype

import (
	"errors"

	"github.com/flint-lang/fip/pkg/fipwire"
)

// ErrMalformed is returned when a kind_tag or primitive kind falls
// outside its closed set, or the type tree is otherwise structurally
// invalid.
var ErrMalformed = errors.New("fiptype: malformed type")

// Encode writes t depth-first into w.
func (t *Type) Encode(w *fipwire.Writer) error {
	if t == nil {
		return ErrMalformed
	}
	if err := w.U8(byte(t.Kind)); err != nil {
		return err
	}
	if err := w.Bool(t.IsMutable); err != nil {
		return err
	}

	switch t.Kind {
	case KindPrimitive:
		return w.U8(byte(t.Primitive))
	case KindPointer:
		return t.Base.Encode(w)
	case KindStruct:
		if len(t.Fields) > 255 {
			return ErrMalformed
		}
		if err := w.U8(byte(len(t.Fields))); err != nil {
			return err
		}
		for _, f := range t.Fields {
			if err := f.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case KindRecursiveBack:
		return w.U8(t.RecursiveLevels)
	case KindEnum:
		return encodeEnumBody(w, t.EnumBitWidth, t.EnumSigned, t.EnumValues)
	default:
		return ErrMalformed
	}
}

// encodeEnumBody writes an enum's bit_width/is_signed/value_count,
// pads the cursor to the next 8-byte boundary of the frame buffer, then
// writes the raw u64 values of a KindEnum Type. EnumSig has its own
// layout and does not use it.
func encodeEnumBody(w *fipwire.Writer, bitWidth uint8, signed bool, values []uint64) error {
	if bitWidth < 1 || bitWidth > 64 {
		return ErrMalformed
	}
	if len(values) > 255 {
		return ErrMalformed
	}
	if err := w.U8(bitWidth); err != nil {
		return err
	}
	if err := w.Bool(signed); err != nil {
		return err
	}
	if err := w.U8(byte(len(values))); err != nil {
		return err
	}
	if err := w.PadTo8(); err != nil {
		return err
	}
	for _, v := range values {
		if err := w.U64(v); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one Type from r, mirroring Encode.
func Decode(r *fipwire.Reader) (*Type, error) {
	kindByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	if kindByte > byte(KindEnum) {
		return nil, ErrMalformed
	}
	kind := Kind(kindByte)

	mutable, err := r.Bool()
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPrimitive:
		pb, err := r.U8()
		if err != nil {
			return nil, err
		}
		p := PrimitiveKind(pb)
		if !p.valid() {
			return nil, ErrMalformed
		}
		return &Type{Kind: KindPrimitive, Primitive: p, IsMutable: mutable}, nil

	case KindPointer:
		base, err := Decode(r)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindPointer, Base: base, IsMutable: mutable}, nil

	case KindStruct:
		count, err := r.U8()
		if err != nil {
			return nil, err
		}
		fields := make([]*Type, 0, count)
		for i := 0; i < int(count); i++ {
			f, err := Decode(r)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return &Type{Kind: KindStruct, Fields: fields, IsMutable: mutable}, nil

	case KindRecursiveBack:
		levels, err := r.U8()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindRecursiveBack, RecursiveLevels: levels, IsMutable: mutable}, nil

	case KindEnum:
		bitWidth, signed, values, err := decodeEnumBody(r)
		if err != nil {
			return nil, err
		}
		return &Type{
			Kind:         KindEnum,
			EnumBitWidth: bitWidth,
			EnumSigned:   signed,
			EnumValues:   values,
			IsMutable:    mutable,
		}, nil

	default:
		return nil, ErrMalformed
	}
}

func decodeEnumBody(r *fipwire.Reader) (bitWidth uint8, signed bool, values []uint64, err error) {
	bitWidth, err = r.U8()
	if err != nil {
		return
	}
	if bitWidth < 1 || bitWidth > 64 {
		err = ErrMalformed
		return
	}
	signed, err = r.Bool()
	if err != nil {
		return
	}
	count, err := r.U8()
	if err != nil {
		return
	}
	if err = r.PadTo8(); err != nil {
		return
	}
	values = make([]uint64, count)
	for i := range values {
		values[i], err = r.U64()
		if err != nil {
			return
		}
	}
	return
}
