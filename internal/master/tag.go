package master

import (
	"fmt"

	"github.com/flint-lang/fip/pkg/fipmsg"
)

// TagStatus is the outcome of a tag_request round.
type TagStatus int

const (
	// TagOK means exactly one slave owns tag and its symbol stream
	// terminated cleanly.
	TagOK TagStatus = iota
	// TagUnknownTag means zero slaves reported is_present=true.
	TagUnknownTag
	// TagAmbiguousTag means more than one slave reported is_present=true.
	TagAmbiguousTag
	// TagFaulty means the unique provider's symbol stream timed out,
	// sent a malformed frame, or sent an unexpected message type before
	// terminating.
	TagFaulty
)

func (s TagStatus) String() string {
	switch s {
	case TagOK:
		return "ok"
	case TagUnknownTag:
		return "unknown-tag"
	case TagAmbiguousTag:
		return "ambiguous-tag"
	case TagFaulty:
		return "faulty"
	default:
		return "invalid"
	}
}

// TagRequest implements the tag streaming sub-protocol: broadcast a
// TagRequest, await one TagPresentResponse per child, then — if exactly
// one child claims the tag — read successive TagSymbolResponse frames
// from that child alone until the terminator (is_empty=true) arrives,
// each bounded by the per-message timeout.
//
// Any timeout, malformed frame, or unexpected message type while
// streaming terminates the stream early: TagRequest returns whatever
// was accumulated so far alongside TagFaulty and a diagnostic error.
func (m *MasterState) TagRequest(tag string) (TagStatus, []fipmsg.Symbol, error) {
	req := &fipmsg.Message{Type: fipmsg.TagRequest, TagRequest: &fipmsg.TagRequestBody{Tag: tag}}
	if err := m.Broadcast(req); err != nil {
		return TagFaulty, nil, err
	}

	result, err := m.AwaitResponses(fipmsg.TagPresentResponse)
	if err != nil {
		return TagFaulty, nil, err
	}

	var (
		providerIdx = -1
		presentN    = 0
	)
	for idx, resp := range result.Responses {
		if resp.Type != fipmsg.TagPresentResponse || !resp.TagPresentResponse.IsPresent {
			continue
		}
		presentN++
		providerIdx = idx
	}

	switch {
	case presentN == 0:
		return TagUnknownTag, nil, nil
	case presentN > 1:
		return TagAmbiguousTag, nil, nil
	}

	provider := m.slaveByIndex(providerIdx)
	if provider == nil || provider.dead {
		m.faults.markFaulty(tag)
		return TagFaulty, nil, fmt.Errorf("master: tag_request: provider slave %d is dead", providerIdx)
	}

	var list []fipmsg.Symbol
	for {
		frame, err := m.readFrameFrom(provider, m.perMessageTimeout)
		if err != nil {
			if m.log != nil {
				m.log.Warn("slave %d (%s): tag_request stream: %v", provider.index, provider.name, err)
			}
			m.faults.markFaulty(tag)
			return TagFaulty, list, fmt.Errorf("master: tag_request: slave %d (%s): %w", provider.index, provider.name, err)
		}

		msg, err := fipmsg.Decode(frame)
		if err != nil || msg.Type != fipmsg.TagSymbolResponse {
			m.faults.markFaulty(tag)
			return TagFaulty, list, fmt.Errorf("master: tag_request: slave %d (%s): expected TagSymbolResponse", provider.index, provider.name)
		}

		body := msg.TagSymbolResponse
		if body.IsEmpty {
			return TagOK, list, nil
		}
		list = append(list, body.Symbol)
	}
}
