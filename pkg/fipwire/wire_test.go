package fipwire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.U8(7); err != nil {
		t.Fatal(err)
	}
	if err := w.Bool(true); err != nil {
		t.Fatal(err)
	}
	if err := w.FixedString("hi", 8); err != nil {
		t.Fatal(err)
	}
	if err := w.U32(123456); err != nil {
		t.Fatal(err)
	}
	if err := w.PadTo8(); err != nil {
		t.Fatal(err)
	}
	if err := w.U64(0xdeadbeefcafef00d); err != nil {
		t.Fatal(err)
	}

	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}

	wantLen := len(frame) - LengthPrefixSize
	gotLen := int(frame[0]) | int(frame[1])<<8 | int(frame[2])<<16 | int(frame[3])<<24
	if gotLen != wantLen {
		t.Fatalf("length header = %d, want %d", gotLen, wantLen)
	}

	r := NewReader(frame)
	if b, err := r.U8(); err != nil || b != 7 {
		t.Fatalf("U8 = %d, %v", b, err)
	}
	if b, err := r.Bool(); err != nil || !b {
		t.Fatalf("Bool = %v, %v", b, err)
	}
	if s, err := r.FixedString(8); err != nil || s != "hi" {
		t.Fatalf("FixedString = %q, %v", s, err)
	}
	if v, err := r.U32(); err != nil || v != 123456 {
		t.Fatalf("U32 = %d, %v", v, err)
	}
	if err := r.PadTo8(); err != nil {
		t.Fatal(err)
	}
	if r.Pos%8 != 0 {
		t.Fatalf("reader cursor %d not 8-aligned after PadTo8", r.Pos)
	}
	if v, err := r.U64(); err != nil || v != 0xdeadbeefcafef00d {
		t.Fatalf("U64 = %#x, %v", v, err)
	}
}

func TestWriterOverflow(t *testing.T) {
	w := &Writer{Buf: make([]byte, 8), Pos: 4}
	if err := w.Bytes(make([]byte, 5)); err != ErrOverflow {
		t.Fatalf("Bytes past buffer end: got %v, want ErrOverflow", err)
	}
}

func TestReaderShort(t *testing.T) {
	r := &Reader{Buf: make([]byte, 6), Pos: 4}
	if _, err := r.U64(); err != ErrShort {
		t.Fatalf("U64 past buffer end: got %v, want ErrShort", err)
	}
}

func TestFixedStringTruncatesAndZeroPads(t *testing.T) {
	w := NewWriter()
	if err := w.FixedString("this name is far too long for the field", 8); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	r := NewReader(frame)
	got, err := r.FixedString(8)
	if err != nil {
		t.Fatal(err)
	}
	if got != "this nam" {
		t.Fatalf("FixedString truncation = %q, want %q", got, "this nam")
	}
}

func TestPadTo8IsIdempotentWhenAlreadyAligned(t *testing.T) {
	w := NewWriter() // Pos starts at 4, already 4-aligned but not 8
	if err := w.PadTo8(); err != nil {
		t.Fatal(err)
	}
	if w.Pos%8 != 0 {
		t.Fatalf("Pos = %d after PadTo8, not 8-aligned", w.Pos)
	}
	before := w.Pos
	if err := w.PadTo8(); err != nil {
		t.Fatal(err)
	}
	if w.Pos != before {
		t.Fatalf("second PadTo8 moved cursor from %d to %d", before, w.Pos)
	}
}
