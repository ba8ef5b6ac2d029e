package fipmsg

import (
	"encoding/binary"
	"errors"

	"github.com/flint-lang/fip/pkg/fipsig"
	"github.com/flint-lang/fip/pkg/fipwire"
)

// ErrFrame is returned when a frame's length header is inconsistent
// with the bytes supplied to Decode.
var ErrFrame = errors.New("fipmsg: invalid frame")

// ErrMalformed is returned for sub-fields that exceed their declared
// bound (e.g. a tag longer than MaxTagLen), distinct from an
// unrecognized discriminant, which decodes to Unknown rather than
// erroring.
var ErrMalformed = errors.New("fipmsg: malformed message")

func encodeSymbol(w *fipwire.Writer, s Symbol) error {
	if err := w.U8(byte(s.Type)); err != nil {
		return err
	}
	switch s.Type {
	case SymFunction:
		return s.Fn.Encode(w)
	case SymData:
		return s.Data.Encode(w)
	case SymEnum:
		return s.Enum.Encode(w)
	default:
		return ErrMalformed
	}
}

// decodeSymbol mirrors encodeSymbol. ok is false when sym_type falls
// outside its closed set, signaling the caller to produce an Unknown
// message rather than a hard decode error.
func decodeSymbol(r *fipwire.Reader) (sym Symbol, ok bool, err error) {
	tb, err := r.U8()
	if err != nil {
		return Symbol{}, false, err
	}
	st := SymbolType(tb)
	if !st.valid() {
		return Symbol{}, false, nil
	}
	switch st {
	case SymFunction:
		fn, err := fipsig.DecodeFnSig(r)
		if err != nil {
			return Symbol{}, false, err
		}
		return Symbol{Type: st, Fn: fn}, true, nil
	case SymData:
		d, err := fipsig.DecodeDataSig(r)
		if err != nil {
			return Symbol{}, false, err
		}
		return Symbol{Type: st, Data: d}, true, nil
	case SymEnum:
		e, err := fipsig.DecodeEnumSig(r)
		if err != nil {
			return Symbol{}, false, err
		}
		return Symbol{Type: st, Enum: e}, true, nil
	default:
		return Symbol{}, false, nil
	}
}

// Encode produces the length-prefixed wire frame for m: it zeroes the
// buffer, reserves the 4-byte length header, writes the message-type
// byte and variant payload, then back-patches the header.
func Encode(m *Message) ([]byte, error) {
	w := fipwire.NewWriter()
	if err := w.U8(byte(m.Type)); err != nil {
		return nil, err
	}

	switch m.Type {
	case Unknown:
		// empty payload

	case ConnectRequest:
		b := m.ConnectRequest
		if err := w.Bool(b.SetupOK); err != nil {
			return nil, err
		}
		if err := w.U8(b.Version.Major); err != nil {
			return nil, err
		}
		if err := w.U8(b.Version.Minor); err != nil {
			return nil, err
		}
		if err := w.U8(b.Version.Patch); err != nil {
			return nil, err
		}
		if err := w.FixedString(b.ModuleName, ModuleNameSize); err != nil {
			return nil, err
		}

	case SymbolRequest:
		if err := encodeSymbol(w, m.SymbolRequest.Symbol); err != nil {
			return nil, err
		}

	case SymbolResponse:
		b := m.SymbolResponse
		if err := w.Bool(b.Found); err != nil {
			return nil, err
		}
		if err := w.FixedString(b.ModuleName, ModuleNameSize); err != nil {
			return nil, err
		}
		if err := encodeSymbol(w, b.Symbol); err != nil {
			return nil, err
		}

	case CompileRequest:
		t := m.CompileRequest.Target
		for _, f := range []string{t.Arch, t.Sub, t.Vendor, t.Sys, t.ABI} {
			if err := w.FixedString(f, TargetFieldSize); err != nil {
				return nil, err
			}
		}

	case ObjectResponse:
		b := m.ObjectResponse
		if err := w.Bool(b.HasObj); err != nil {
			return nil, err
		}
		if err := w.Bool(b.CompilationFailed); err != nil {
			return nil, err
		}
		if err := w.FixedString(b.ModuleName, ModuleNameSize); err != nil {
			return nil, err
		}
		if len(b.Paths) > 255 || len(b.Paths) > MaxPaths {
			return nil, ErrMalformed
		}
		if err := w.U8(byte(len(b.Paths))); err != nil {
			return nil, err
		}
		for _, p := range b.Paths {
			if err := w.FixedString(p, PathSize); err != nil {
				return nil, err
			}
		}

	case TagRequest:
		tag := m.TagRequest.Tag
		if len(tag) > MaxTagLen {
			return nil, ErrMalformed
		}
		if err := w.U8(byte(len(tag))); err != nil {
			return nil, err
		}
		if err := w.Bytes([]byte(tag)); err != nil {
			return nil, err
		}

	case TagPresentResponse:
		if err := w.Bool(m.TagPresentResponse.IsPresent); err != nil {
			return nil, err
		}

	case TagSymbolResponse:
		b := m.TagSymbolResponse
		if err := w.Bool(b.IsEmpty); err != nil {
			return nil, err
		}
		if !b.IsEmpty {
			if err := encodeSymbol(w, b.Symbol); err != nil {
				return nil, err
			}
		}

	case Kill:
		if err := w.U8(byte(m.Kill.Reason)); err != nil {
			return nil, err
		}

	default:
		return nil, ErrMalformed
	}

	return w.Finish()
}

// Decode reads one Message from frame, the full length-prefixed wire
// frame as handed back by the transport's ReadFrame.
func Decode(frame []byte) (*Message, error) {
	if len(frame) < fipwire.LengthPrefixSize+1 || len(frame) > fipwire.MsgSize {
		return nil, ErrFrame
	}
	l := binary.LittleEndian.Uint32(frame[:4])
	if l < 1 || int(l) > fipwire.MaxPayload || int(l) != len(frame)-4 {
		return nil, ErrFrame
	}

	r := fipwire.NewReader(frame)
	tb, err := r.U8()
	if err != nil {
		return nil, err
	}
	if tb > byte(Kill) {
		return &Message{Type: Unknown}, nil
	}

	switch Type(tb) {
	case Unknown:
		return &Message{Type: Unknown}, nil

	case ConnectRequest:
		setupOK, err := r.Bool()
		if err != nil {
			return nil, err
		}
		major, err := r.U8()
		if err != nil {
			return nil, err
		}
		minor, err := r.U8()
		if err != nil {
			return nil, err
		}
		patch, err := r.U8()
		if err != nil {
			return nil, err
		}
		moduleName, err := r.FixedString(ModuleNameSize)
		if err != nil {
			return nil, err
		}
		return &Message{Type: ConnectRequest, ConnectRequest: &ConnectRequestBody{
			SetupOK:    setupOK,
			Version:    Version{major, minor, patch},
			ModuleName: moduleName,
		}}, nil

	case SymbolRequest:
		sym, ok, err := decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Message{Type: Unknown}, nil
		}
		return &Message{Type: SymbolRequest, SymbolRequest: &SymbolRequestBody{Symbol: sym}}, nil

	case SymbolResponse:
		found, err := r.Bool()
		if err != nil {
			return nil, err
		}
		moduleName, err := r.FixedString(ModuleNameSize)
		if err != nil {
			return nil, err
		}
		sym, ok, err := decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Message{Type: Unknown}, nil
		}
		return &Message{Type: SymbolResponse, SymbolResponse: &SymbolResponseBody{
			Found:      found,
			ModuleName: moduleName,
			Symbol:     sym,
		}}, nil

	case CompileRequest:
		var fields [5]string
		for i := range fields {
			fields[i], err = r.FixedString(TargetFieldSize)
			if err != nil {
				return nil, err
			}
		}
		return &Message{Type: CompileRequest, CompileRequest: &CompileRequestBody{
			Target: Target{Arch: fields[0], Sub: fields[1], Vendor: fields[2], Sys: fields[3], ABI: fields[4]},
		}}, nil

	case ObjectResponse:
		hasObj, err := r.Bool()
		if err != nil {
			return nil, err
		}
		compilationFailed, err := r.Bool()
		if err != nil {
			return nil, err
		}
		moduleName, err := r.FixedString(ModuleNameSize)
		if err != nil {
			return nil, err
		}
		count, err := r.U8()
		if err != nil {
			return nil, err
		}
		paths := make([]string, count)
		for i := range paths {
			paths[i], err = r.FixedString(PathSize)
			if err != nil {
				return nil, err
			}
		}
		return &Message{Type: ObjectResponse, ObjectResponse: &ObjectResponseBody{
			HasObj:            hasObj,
			CompilationFailed: compilationFailed,
			ModuleName:        moduleName,
			Paths:             paths,
		}}, nil

	case TagRequest:
		n, err := r.U8()
		if err != nil {
			return nil, err
		}
		if n > MaxTagLen {
			return nil, ErrMalformed
		}
		b, err := r.Bytes(int(n))
		if err != nil {
			return nil, err
		}
		return &Message{Type: TagRequest, TagRequest: &TagRequestBody{Tag: string(b)}}, nil

	case TagPresentResponse:
		isPresent, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return &Message{Type: TagPresentResponse, TagPresentResponse: &TagPresentResponseBody{IsPresent: isPresent}}, nil

	case TagSymbolResponse:
		isEmpty, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if isEmpty {
			return &Message{Type: TagSymbolResponse, TagSymbolResponse: &TagSymbolResponseBody{IsEmpty: true}}, nil
		}
		sym, ok, err := decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Message{Type: Unknown}, nil
		}
		return &Message{Type: TagSymbolResponse, TagSymbolResponse: &TagSymbolResponseBody{
			IsEmpty: false,
			Symbol:  sym,
		}}, nil

	case Kill:
		reasonByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		if reasonByte > byte(KillVersionMismatch) {
			return &Message{Type: Unknown}, nil
		}
		return &Message{Type: Kill, Kill: &KillBody{Reason: KillReason(reasonByte)}}, nil

	default:
		return &Message{Type: Unknown}, nil
	}
}
