package fipsig

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flint-lang/fip/pkg/fiptype"
	"github.com/flint-lang/fip/pkg/fipwire"
)

func TestFnSigRoundTrip(t *testing.T) {
	want := &FnSig{
		Name: "do_thing",
		Args: []*fiptype.Type{fiptype.NewPrimitive(fiptype.I32, false), fiptype.NewPointer(fiptype.NewPrimitive(fiptype.U8, false), true)},
		Rets: []*fiptype.Type{fiptype.NewPrimitive(fiptype.Bool, false)},
	}
	w := fipwire.NewWriter()
	if err := want.Encode(w); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeFnSig(fipwire.NewReader(frame))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFnSigEqualReflexiveAndSymmetric(t *testing.T) {
	a := &FnSig{Name: "f", Args: []*fiptype.Type{fiptype.NewPrimitive(fiptype.I32, false)}, Rets: nil}
	b := a.Clone()
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("clone should equal original both ways")
	}
}

func TestFnSigIsMutableAffectsEquality(t *testing.T) {
	// fipsig.Equal delegates to fiptype.Equal which DOES consider
	// IsMutable; a signature differing only in an argument's mutability
	// must not be equal, even though Name and arity match.
	a := &FnSig{Name: "f", Args: []*fiptype.Type{fiptype.NewPrimitive(fiptype.I32, false)}}
	b := &FnSig{Name: "f", Args: []*fiptype.Type{fiptype.NewPrimitive(fiptype.I32, true)}}
	if a.Equal(b) {
		t.Fatal("signatures differing in argument mutability must not be equal")
	}
}

func TestFnSigNameMismatch(t *testing.T) {
	a := &FnSig{Name: "f"}
	b := &FnSig{Name: "g"}
	if a.Equal(b) {
		t.Fatal("signatures with different names must not be equal")
	}
}

func TestDataSigRoundTrip(t *testing.T) {
	want := &DataSig{
		Name: "point",
		Values: []DataSigValue{
			{Name: "x", Type: fiptype.NewPrimitive(fiptype.F64, false)},
			{Name: "y", Type: fiptype.NewPrimitive(fiptype.F64, false)},
		},
	}
	w := fipwire.NewWriter()
	if err := want.Encode(w); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeDataSig(fipwire.NewReader(frame))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumSigRoundTrip(t *testing.T) {
	want := &EnumSig{
		Name:   "color",
		Type:   fiptype.U8,
		Tags:   []string{"RED", "GREEN", "BLUE"},
		Values: []uint64{0, 1, 2},
	}
	w := fipwire.NewWriter()
	if err := want.Encode(w); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeEnumSig(fipwire.NewReader(frame))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumSigTagValueLengthMismatchIsMalformed(t *testing.T) {
	bad := &EnumSig{Name: "bad", Type: fiptype.U8, Tags: []string{"A", "B"}, Values: []uint64{0}}
	w := fipwire.NewWriter()
	if err := bad.Encode(w); err != ErrMalformed {
		t.Fatalf("Encode with mismatched tags/values: got %v, want ErrMalformed", err)
	}
}
