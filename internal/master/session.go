package master

import (
	"github.com/pkg/errors"

	"github.com/flint-lang/fip/pkg/fipmsg"
)

// SymbolRequest broadcasts a SymbolRequest for sym and awaits a
// SymbolResponse from every live child. The symbol is
// considered found iff at least one responder reports found=true; the
// master does not reconcile disagreeing providers.
func (m *MasterState) SymbolRequest(sym fipmsg.Symbol) (bool, error) {
	req := &fipmsg.Message{Type: fipmsg.SymbolRequest, SymbolRequest: &fipmsg.SymbolRequestBody{Symbol: sym}}
	if err := m.Broadcast(req); err != nil {
		return false, errors.Wrap(err, "master: symbol_request broadcast")
	}

	result, err := m.AwaitResponses(fipmsg.SymbolResponse)
	if err != nil {
		return false, errors.Wrap(err, "master: symbol_request await")
	}

	for _, resp := range result.Responses {
		if resp.Type == fipmsg.SymbolResponse && resp.SymbolResponse.Found {
			return true, nil
		}
	}
	return false, nil
}

// CompileRequest broadcasts a CompileRequest for target and awaits an
// ObjectResponse from every live child. Success is "no wrong messages
// AND no compilation_failed=true", not merely "any responder produced
// an object".
func (m *MasterState) CompileRequest(target fipmsg.Target) (bool, error) {
	req := &fipmsg.Message{Type: fipmsg.CompileRequest, CompileRequest: &fipmsg.CompileRequestBody{Target: target}}
	if err := m.Broadcast(req); err != nil {
		return false, errors.Wrap(err, "master: compile_request broadcast")
	}

	result, err := m.AwaitResponses(fipmsg.ObjectResponse)
	if err != nil {
		return false, errors.Wrap(err, "master: compile_request await")
	}
	if result.WrongCount > 0 {
		return false, nil
	}

	for _, resp := range result.Responses {
		if resp.Type != fipmsg.ObjectResponse {
			continue
		}
		b := resp.ObjectResponse
		if b.HasObj && b.CompilationFailed {
			return false, nil
		}
	}
	return true, nil
}
