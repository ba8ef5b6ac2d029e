// Package fiptype implements the FIP type model: a recursive,
// tagged-union type tree with primitive, pointer, struct,
// recursive-back-reference, and enum variants, plus its binary
// encode/decode, clone, and bounded-text printing.
package fiptype

import "fmt"

// Kind discriminates the Type tagged union. Values match the kind_tag
// byte on the wire.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindStruct
	KindRecursiveBack
	KindEnum
)

// PrimitiveKind enumerates the primitive scalar kinds, numbered 0..12
// on the wire.
type PrimitiveKind uint8

const (
	Void PrimitiveKind = iota
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
	Bool
	Str
)

var primitiveNames = [...]string{
	Void: "void", U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	F32: "f32", F64: "f64", Bool: "bool", Str: "str",
}

func (p PrimitiveKind) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "invalid"
}

func (p PrimitiveKind) valid() bool { return p <= Str }

// Type is one node of the recursive type tree. Only the fields
// relevant to Kind are meaningful; callers that build a Type directly
// (rather than via the New* constructors) must leave the others zero.
type Type struct {
	Kind      Kind
	IsMutable bool

	// KindPrimitive
	Primitive PrimitiveKind

	// KindPointer
	Base *Type

	// KindStruct
	Fields []*Type

	// KindRecursiveBack
	RecursiveLevels uint8

	// KindEnum
	EnumBitWidth uint8
	EnumSigned   bool
	// EnumValues holds the raw bits of each enumerator, masked to
	// EnumBitWidth and sign-extended only when rendered.
	EnumValues []uint64
}

// NewPrimitive returns a Primitive type node.
func NewPrimitive(kind PrimitiveKind, mutable bool) *Type {
	return &Type{Kind: KindPrimitive, Primitive: kind, IsMutable: mutable}
}

// NewPointer returns a Pointer type node owning base.
func NewPointer(base *Type, mutable bool) *Type {
	return &Type{Kind: KindPointer, Base: base, IsMutable: mutable}
}

// NewStruct returns a Struct type node owning fields, in order.
func NewStruct(fields []*Type, mutable bool) *Type {
	return &Type{Kind: KindStruct, Fields: fields, IsMutable: mutable}
}

// NewRecursiveBack returns a back-reference to the enclosing struct
// levels steps outward.
func NewRecursiveBack(levels uint8, mutable bool) *Type {
	return &Type{Kind: KindRecursiveBack, RecursiveLevels: levels, IsMutable: mutable}
}

// NewEnum returns an Enum type node. values are raw bit patterns,
// interpreted according to bitWidth/signed only when rendered.
func NewEnum(bitWidth uint8, signed bool, values []uint64, mutable bool) *Type {
	return &Type{
		Kind:         KindEnum,
		EnumBitWidth: bitWidth,
		EnumSigned:   signed,
		EnumValues:   append([]uint64(nil), values...),
		IsMutable:    mutable,
	}
}

// Clone deep-copies t.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := &Type{
		Kind:            t.Kind,
		IsMutable:       t.IsMutable,
		Primitive:       t.Primitive,
		RecursiveLevels: t.RecursiveLevels,
		EnumBitWidth:    t.EnumBitWidth,
		EnumSigned:      t.EnumSigned,
	}
	if t.Base != nil {
		c.Base = t.Base.Clone()
	}
	if t.Fields != nil {
		c.Fields = make([]*Type, len(t.Fields))
		for i, f := range t.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	if t.EnumValues != nil {
		c.EnumValues = append([]uint64(nil), t.EnumValues...)
	}
	return c
}

// Equal implements the fingerprint equality used by symbol matching:
// structurally equal types, including IsMutable, with
// struct field order significant and RecursiveBack equal only when the
// level counts match.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.IsMutable != o.IsMutable {
		return false
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive == o.Primitive
	case KindPointer:
		return t.Base.Equal(o.Base)
	case KindStruct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(o.Fields[i]) {
				return false
			}
		}
		return true
	case KindRecursiveBack:
		return t.RecursiveLevels == o.RecursiveLevels
	case KindEnum:
		if t.EnumBitWidth != o.EnumBitWidth || t.EnumSigned != o.EnumSigned {
			return false
		}
		if len(t.EnumValues) != len(o.EnumValues) {
			return false
		}
		for i := range t.EnumValues {
			if t.EnumValues[i] != o.EnumValues[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the bounded textual form:
// primitive_name, T*, { t0, t1, ... }, {REC:n}, enum(u16){v0, v1, ...}.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindPointer:
		return t.Base.String() + "*"
	case KindStruct:
		s := "{ "
		for i, f := range t.Fields {
			if i > 0 {
				s += ", "
			}
			s += f.String()
		}
		return s + " }"
	case KindRecursiveBack:
		return fmt.Sprintf("{REC:%d}", t.RecursiveLevels)
	case KindEnum:
		s := fmt.Sprintf("enum(u%d){", t.EnumBitWidth)
		for i, v := range t.EnumValues {
			if i > 0 {
				s += ", "
			}
			s += formatEnumValue(v, t.EnumBitWidth, t.EnumSigned)
		}
		return s + "}"
	default:
		return "<invalid>"
	}
}

// formatEnumValue masks v to bitWidth bits and, for signed enums,
// sign-extends before rendering as a decimal two's-complement value.
func formatEnumValue(v uint64, bitWidth uint8, signed bool) string {
	masked := maskBits(v, bitWidth)
	if !signed {
		return fmt.Sprintf("%d", masked)
	}
	signBit := uint64(1) << (bitWidth - 1)
	if masked&signBit != 0 {
		// sign-extend: fill the high bits with 1 then reinterpret as int64
		extended := masked | ^maskBits(^uint64(0), bitWidth)
		return fmt.Sprintf("%d", int64(extended))
	}
	return fmt.Sprintf("%d", int64(masked))
}

func maskBits(v uint64, bitWidth uint8) uint64 {
	if bitWidth >= 64 {
		return v
	}
	return v & ((uint64(1) << bitWidth) - 1)
}
