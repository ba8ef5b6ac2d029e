// Package fipmsg implements the FIP message codec: the tagged union of
// message variants exchanged between master and interop
// modules, and its length-prefixed binary encode/decode built on
// pkg/fiptype and pkg/fipsig.
package fipmsg

import "github.com/flint-lang/fip/pkg/fipsig"

// Type discriminates the Message tagged union; values match the
// message_type byte on the wire.
type Type uint8

const (
	Unknown Type = iota
	ConnectRequest
	SymbolRequest
	SymbolResponse
	CompileRequest
	ObjectResponse
	TagRequest
	TagPresentResponse
	TagSymbolResponse
	Kill
)

// SymbolType discriminates which of FnSig/DataSig/EnumSig a symbol
// message carries.
type SymbolType uint8

const (
	SymFunction SymbolType = iota
	SymData
	SymEnum
)

func (s SymbolType) valid() bool { return s <= SymEnum }

// KillReason discriminates why the master is shutting a slave down.
type KillReason uint8

const (
	KillFinish KillReason = iota
	KillVersionMismatch
)

// Version is the three-byte (major, minor, patch) handshake version.
type Version struct {
	Major, Minor, Patch uint8
}

// ModuleNameSize is FIP_MAX_MODULE_NAME_LEN.
const ModuleNameSize = 16

// TargetFieldSize is the fixed width of each compile target field.
const TargetFieldSize = 16

// PathSize is FIP_PATH_SIZE: the width of one hashed object path.
const PathSize = 8

// MaxPaths bounds path_count to what FIP_PATHS_SIZE can hold.
const MaxPaths = 992 / PathSize

// MaxTagLen is the largest tag string TagRequest accepts.
const MaxTagLen = 128

// Symbol bundles the three possible signature payloads behind a
// SymbolType discriminant, used by SymbolRequest, SymbolResponse, and
// TagSymbolResponse alike.
type Symbol struct {
	Type SymbolType
	Fn   *fipsig.FnSig
	Data *fipsig.DataSig
	Enum *fipsig.EnumSig
}

// ConnectRequestBody is the ConnectRequest payload.
type ConnectRequestBody struct {
	SetupOK    bool
	Version    Version
	ModuleName string
}

// SymbolRequestBody is the SymbolRequest payload.
type SymbolRequestBody struct {
	Symbol Symbol
}

// SymbolResponseBody is the SymbolResponse payload.
type SymbolResponseBody struct {
	Found      bool
	ModuleName string
	Symbol     Symbol
}

// Target is the (arch, sub, vendor, sys, abi) compile target tuple.
type Target struct {
	Arch, Sub, Vendor, Sys, ABI string
}

// CompileRequestBody is the CompileRequest payload.
type CompileRequestBody struct {
	Target Target
}

// ObjectResponseBody is the ObjectResponse payload.
type ObjectResponseBody struct {
	HasObj            bool
	CompilationFailed bool
	ModuleName        string
	// Paths holds one 8-character path hash per compiled source.
	Paths []string
}

// TagRequestBody is the TagRequest payload.
type TagRequestBody struct {
	Tag string
}

// TagPresentResponseBody is the TagPresentResponse payload.
type TagPresentResponseBody struct {
	IsPresent bool
}

// TagSymbolResponseBody is the TagSymbolResponse payload.
type TagSymbolResponseBody struct {
	IsEmpty bool
	Symbol  Symbol
}

// KillBody is the Kill payload.
type KillBody struct {
	Reason KillReason
}

// Message is the tagged union of all wire variants. Exactly one of
// the body fields is meaningful, selected by Type; Unknown carries no
// payload at all.
type Message struct {
	Type Type

	ConnectRequest     *ConnectRequestBody
	SymbolRequest      *SymbolRequestBody
	SymbolResponse     *SymbolResponseBody
	CompileRequest     *CompileRequestBody
	ObjectResponse     *ObjectResponseBody
	TagRequest         *TagRequestBody
	TagPresentResponse *TagPresentResponseBody
	TagSymbolResponse  *TagSymbolResponseBody
	Kill               *KillBody
}

// Clone deep-copies m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := &Message{Type: m.Type}
	if m.ConnectRequest != nil {
		b := *m.ConnectRequest
		c.ConnectRequest = &b
	}
	if m.SymbolRequest != nil {
		c.SymbolRequest = &SymbolRequestBody{Symbol: m.SymbolRequest.Symbol.clone()}
	}
	if m.SymbolResponse != nil {
		c.SymbolResponse = &SymbolResponseBody{
			Found:      m.SymbolResponse.Found,
			ModuleName: m.SymbolResponse.ModuleName,
			Symbol:     m.SymbolResponse.Symbol.clone(),
		}
	}
	if m.CompileRequest != nil {
		b := *m.CompileRequest
		c.CompileRequest = &b
	}
	if m.ObjectResponse != nil {
		b := *m.ObjectResponse
		b.Paths = append([]string(nil), m.ObjectResponse.Paths...)
		c.ObjectResponse = &b
	}
	if m.TagRequest != nil {
		b := *m.TagRequest
		c.TagRequest = &b
	}
	if m.TagPresentResponse != nil {
		b := *m.TagPresentResponse
		c.TagPresentResponse = &b
	}
	if m.TagSymbolResponse != nil {
		c.TagSymbolResponse = &TagSymbolResponseBody{
			IsEmpty: m.TagSymbolResponse.IsEmpty,
			Symbol:  m.TagSymbolResponse.Symbol.clone(),
		}
	}
	if m.Kill != nil {
		b := *m.Kill
		c.Kill = &b
	}
	return c
}

func (s Symbol) clone() Symbol {
	return Symbol{
		Type: s.Type,
		Fn:   s.Fn.Clone(),
		Data: s.Data.Clone(),
		Enum: s.Enum.Clone(),
	}
}
