package fiptype

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flint-lang/fip/pkg/fipwire"
)

func roundTrip(t *testing.T, typ *Type) *Type {
	t.Helper()
	w := fipwire.NewWriter()
	if err := typ.Encode(w); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	r := fipwire.NewReader(frame)
	got, err := Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripPrimitive(t *testing.T) {
	want := NewPrimitive(I32, true)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripPointerToPointer(t *testing.T) {
	want := NewPointer(NewPointer(NewPrimitive(U8, false), true), false)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripNestedStruct(t *testing.T) {
	inner := NewStruct([]*Type{NewPrimitive(F64, false), NewPrimitive(Bool, false)}, true)
	want := NewStruct([]*Type{NewPrimitive(I8, false), inner, NewPrimitive(Str, true)}, false)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripStructWithRecursiveBack(t *testing.T) {
	want := NewStruct([]*Type{
		NewPrimitive(I32, false),
		NewStruct([]*Type{NewRecursiveBack(2, false)}, false),
	}, false)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripEnumWidths(t *testing.T) {
	widths := []uint8{1, 8, 16, 32, 64}
	for _, w := range widths {
		for _, signed := range []bool{false, true} {
			want := NewEnum(w, signed, []uint64{0, 1, 2}, false)
			got := roundTrip(t, want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("bitWidth=%d signed=%v round trip mismatch (-want +got):\n%s", w, signed, diff)
			}
		}
	}
}

func TestEnumValueOffsetIs8Aligned(t *testing.T) {
	typ := NewEnum(16, false, []uint64{1, 2, 3}, false)
	w := fipwire.NewWriter()
	if err := typ.Encode(w); err != nil {
		t.Fatal(err)
	}
	// kind_tag(1) + is_mutable(1) + bit_width(1) + is_signed(1) + value_count(1) = 5
	// bytes from cursor start (4, the length header); padding must land the
	// first value on an 8-aligned absolute offset.
	valueOffset := fipwire.LengthPrefixSize + 5
	for valueOffset%8 != 0 {
		valueOffset++
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if valueOffset%8 != 0 {
		t.Fatalf("computed value offset %d is not 8-aligned", valueOffset)
	}
	if got := binary.LittleEndian.Uint64(frame[valueOffset:]); got != 1 {
		t.Fatalf("u64 at offset %d = %d, want first enum value 1", valueOffset, got)
	}
}

func TestEqualReflexiveAndStructural(t *testing.T) {
	a := NewStruct([]*Type{NewPrimitive(I32, true), NewPointer(NewPrimitive(U8, false), false)}, false)
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone should be structurally equal to original")
	}
	if !b.Equal(a) {
		t.Fatal("Equal should be symmetric")
	}

	c := a.Clone()
	c.Fields[0].IsMutable = !c.Fields[0].IsMutable
	if a.Equal(c) {
		t.Fatal("types differing only in IsMutable must not be equal")
	}
}

func TestEqualRecursiveBackLevels(t *testing.T) {
	a := NewRecursiveBack(1, false)
	b := NewRecursiveBack(2, false)
	if a.Equal(b) {
		t.Fatal("RecursiveBack with different levels must not be equal")
	}
}

func TestStringFormsAreBounded(t *testing.T) {
	cases := []struct {
		typ  *Type
		want string
	}{
		{NewPrimitive(U16, false), "u16"},
		{NewPointer(NewPrimitive(I32, false), false), "i32*"},
		{NewStruct([]*Type{NewPrimitive(Bool, false), NewPrimitive(F32, false)}, false), "{ bool, f32 }"},
		{NewRecursiveBack(3, false), "{REC:3}"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestStringSignedEnumTwosComplement(t *testing.T) {
	// -1 as an 8-bit two's complement value is 0xff.
	typ := NewEnum(8, true, []uint64{0xff, 0x01}, false)
	want := "enum(u8){-1, 1}"
	if got := typ.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDecodeMalformedKindTag(t *testing.T) {
	w := fipwire.NewWriter()
	_ = w.U8(200) // outside the Kind enum
	_ = w.Bool(false)
	frame, _ := w.Finish()
	r := fipwire.NewReader(frame)
	if _, err := Decode(r); err != ErrMalformed {
		t.Fatalf("Decode with invalid kind tag: got %v, want ErrMalformed", err)
	}
}
