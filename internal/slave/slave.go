// Package slave implements the FIP slave runtime: the per-interop-module
// loop that reads one framed request at a time from its stdin,
// dispatches it to a module-supplied Handler, and writes one or more
// framed responses to stdout. The loop is single-threaded and has no
// per-iteration timeout — it blocks on the framed stdin read.
package slave

import (
	"errors"
	"io"

	"github.com/flint-lang/fip/internal/fiptransport"
	"github.com/flint-lang/fip/pkg/fiplog"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// Handler is implemented by each interop module's own package (the C
// IM's source scanner, or any other foreign-language front-end). It
// owns the symbol table and compilation step; the slave runtime only
// drives the dispatch.
type Handler interface {
	// ModuleName returns this module's fixed name, truncated to
	// fipmsg.ModuleNameSize on the wire.
	ModuleName() string

	// Setup performs module-specific startup (scanning sources, loading
	// the module's own TOML config) and reports whether it succeeded.
	Setup() bool

	// FindSymbol reports whether sym fingerprint-matches a locally known
	// symbol of the same kind.
	FindSymbol(sym fipmsg.Symbol) bool

	// HasTag reports whether any local symbol carries tag.
	HasTag(tag string) bool

	// SymbolsForTag returns every local symbol carrying tag, in the
	// order the master should see them streamed.
	SymbolsForTag(tag string) []fipmsg.Symbol

	// Compile compiles every source still needing it for target and
	// returns the path hash of each compiled artifact plus whether
	// compilation failed overall.
	Compile(target fipmsg.Target) (paths []string, failed bool)
}

// Run executes the slave loop against handler: it sends
// one ConnectRequest reflecting Setup's result, then dispatches framed
// requests read from r until a Kill message arrives or r closes.
// Responses are written to w. version is this module's own compiled-in
// protocol version, compared by the master during the handshake.
func Run(r io.Reader, w io.Writer, version fipmsg.Version, handler Handler, log *fiplog.Logger) error {
	setupOK := handler.Setup()

	connect := &fipmsg.Message{
		Type: fipmsg.ConnectRequest,
		ConnectRequest: &fipmsg.ConnectRequestBody{
			SetupOK:    setupOK,
			Version:    version,
			ModuleName: handler.ModuleName(),
		},
	}
	if err := writeMessage(w, connect); err != nil {
		return err
	}
	if log != nil {
		log.Info("connected as %q (setup_ok=%v)", handler.ModuleName(), setupOK)
	}

	for {
		frame, err := fiptransport.ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		msg, err := fipmsg.Decode(frame)
		if err != nil {
			if log != nil {
				log.Warn("malformed request: %v", err)
			}
			continue
		}

		done, err := dispatch(w, handler, msg, log)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// dispatch handles one decoded request. done is true once a Kill
// message has been processed.
func dispatch(w io.Writer, handler Handler, msg *fipmsg.Message, log *fiplog.Logger) (done bool, err error) {
	switch msg.Type {
	case fipmsg.SymbolRequest:
		sym := msg.SymbolRequest.Symbol
		found := handler.FindSymbol(sym)
		resp := &fipmsg.Message{
			Type: fipmsg.SymbolResponse,
			SymbolResponse: &fipmsg.SymbolResponseBody{
				Found:      found,
				ModuleName: handler.ModuleName(),
				Symbol:     sym,
			},
		}
		return false, writeMessage(w, resp)

	case fipmsg.CompileRequest:
		paths, failed := handler.Compile(msg.CompileRequest.Target)
		resp := &fipmsg.Message{
			Type: fipmsg.ObjectResponse,
			ObjectResponse: &fipmsg.ObjectResponseBody{
				HasObj:            len(paths) > 0,
				CompilationFailed: failed,
				ModuleName:        handler.ModuleName(),
				Paths:             paths,
			},
		}
		return false, writeMessage(w, resp)

	case fipmsg.TagRequest:
		tag := msg.TagRequest.Tag
		present := handler.HasTag(tag)
		presentResp := &fipmsg.Message{
			Type:               fipmsg.TagPresentResponse,
			TagPresentResponse: &fipmsg.TagPresentResponseBody{IsPresent: present},
		}
		if err := writeMessage(w, presentResp); err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}

		for _, sym := range handler.SymbolsForTag(tag) {
			streamResp := &fipmsg.Message{
				Type:              fipmsg.TagSymbolResponse,
				TagSymbolResponse: &fipmsg.TagSymbolResponseBody{IsEmpty: false, Symbol: sym},
			}
			if err := writeMessage(w, streamResp); err != nil {
				return false, err
			}
		}
		terminator := &fipmsg.Message{
			Type:              fipmsg.TagSymbolResponse,
			TagSymbolResponse: &fipmsg.TagSymbolResponseBody{IsEmpty: true},
		}
		return false, writeMessage(w, terminator)

	case fipmsg.Kill:
		if log != nil {
			log.Info("received kill (reason=%v), exiting", msg.Kill.Reason)
		}
		return true, nil

	default:
		if log != nil {
			log.Warn("ignoring unexpected message type %d", msg.Type)
		}
		return false, nil
	}
}

func writeMessage(w io.Writer, msg *fipmsg.Message) error {
	frame, err := fipmsg.Encode(msg)
	if err != nil {
		return err
	}
	return fiptransport.WriteMessage(w, frame)
}
