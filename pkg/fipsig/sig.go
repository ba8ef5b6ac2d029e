// Package fipsig implements the FIP signature model: function, data,
// and enum signatures built on pkg/fiptype, with their binary
// encode/decode, clone, and fingerprint equality.
package fipsig

import "github.com/flint-lang/fip/pkg/fiptype"

// NameFieldSize is the fixed, zero-padded width of every signature's
// name field.
const NameFieldSize = 128

// FnSig is a function signature: a name plus ordered argument and
// return types.
type FnSig struct {
	Name string
	Args []*fiptype.Type
	Rets []*fiptype.Type
}

// DataSigValue is one named, typed value of a DataSig.
type DataSigValue struct {
	Name string
	Type *fiptype.Type
}

// DataSig is a named tuple of typed values.
type DataSig struct {
	Name   string
	Values []DataSigValue
}

// EnumSig is a named enumeration: a backing primitive type plus
// parallel tag/value sequences.
type EnumSig struct {
	Name   string
	Type   fiptype.PrimitiveKind
	Tags   []string
	Values []uint64
}

// Clone deep-copies fn.
func (fn *FnSig) Clone() *FnSig {
	if fn == nil {
		return nil
	}
	c := &FnSig{Name: fn.Name}
	for _, a := range fn.Args {
		c.Args = append(c.Args, a.Clone())
	}
	for _, r := range fn.Rets {
		c.Rets = append(c.Rets, r.Clone())
	}
	return c
}

// Clone deep-copies d.
func (d *DataSig) Clone() *DataSig {
	if d == nil {
		return nil
	}
	c := &DataSig{Name: d.Name}
	for _, v := range d.Values {
		c.Values = append(c.Values, DataSigValue{Name: v.Name, Type: v.Type.Clone()})
	}
	return c
}

// Clone deep-copies e.
func (e *EnumSig) Clone() *EnumSig {
	if e == nil {
		return nil
	}
	return &EnumSig{
		Name:   e.Name,
		Type:   e.Type,
		Tags:   append([]string(nil), e.Tags...),
		Values: append([]uint64(nil), e.Values...),
	}
}

// Equal implements function fingerprint equality: reflexive,
// symmetric, exact name match, and structural type equality
// (including IsMutable) over args and rets in order.
func (fn *FnSig) Equal(o *FnSig) bool {
	if fn == nil || o == nil {
		return fn == o
	}
	if fn.Name != o.Name {
		return false
	}
	if len(fn.Args) != len(o.Args) || len(fn.Rets) != len(o.Rets) {
		return false
	}
	for i := range fn.Args {
		if !fn.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	for i := range fn.Rets {
		if !fn.Rets[i].Equal(o.Rets[i]) {
			return false
		}
	}
	return true
}
