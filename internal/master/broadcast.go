package master

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/flint-lang/fip/internal/fiptransport"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// Broadcast encodes msg once and writes it to every live child's stdin.
// A per-child write failure marks that child
// write-dead for the rest of the session but does not abort the round.
func (m *MasterState) Broadcast(msg *fipmsg.Message) error {
	frame, err := fipmsg.Encode(msg)
	if err != nil {
		return errors.Wrap(err, "master: encoding broadcast message")
	}

	for _, s := range m.live() {
		if err := fiptransport.WriteMessage(s.stdin, frame); err != nil {
			s.dead = true
			if m.log != nil {
				m.log.Warn("slave %d (%s): write failed, marking dead: %v", s.index, s.name, err)
			}
		}
	}
	return nil
}

// RoundResult is the outcome of one await_responses round.
type RoundResult struct {
	// Responses is keyed by slave index, not by position: the round
	// treats responses as an unordered set indexed by child slot.
	Responses  map[int]*fipmsg.Message
	WrongCount int
}

// deadlineSetter is implemented by the *os.File pipe ends exec.Cmd
// hands back, letting AwaitResponses bound each child's wait without a
// select-based readiness primitive.
type deadlineSetter interface {
	io.Reader
	SetReadDeadline(time.Time) error
}

func (m *MasterState) stderrSink() io.Writer {
	return os.Stderr
}

// AwaitResponses collects one response per live child, each under the
// configured round timeout measured from the start of that child's own
// wait. Calling it with no live children returns immediately with an
// empty, zero-wrong result.
func (m *MasterState) AwaitResponses(expected fipmsg.Type) (*RoundResult, error) {
	live := m.live()
	result := &RoundResult{Responses: make(map[int]*fipmsg.Message, len(live))}
	if len(live) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	for _, s := range live {
		s := s
		g.Go(func() error {
			msg, wrong := m.readOne(s, m.roundTimeout)

			mu.Lock()
			defer mu.Unlock()
			if wrong {
				result.WrongCount++
				return nil
			}
			if msg.Type != expected {
				result.WrongCount++
			}
			result.Responses[s.index] = msg
			return nil
		})
	}
	// readOne never returns an error through the group; errors are
	// folded into the wrong count instead so one stuck child can't
	// cancel the others' rounds.
	_ = g.Wait()
	return result, nil
}

// readOne reads a single frame from s's stdout under deadline,
// continuously draining s's stderr to the master's stderr sink while
// it waits. wrong is true on any timeout,
// transport error, or malformed payload.
func (m *MasterState) readOne(s *slave, deadline time.Duration) (msg *fipmsg.Message, wrong bool) {
	frame, err := m.readFrameFrom(s, deadline)
	if err != nil {
		if m.log != nil {
			m.log.Warn("slave %d (%s): await_responses: %v", s.index, s.name, err)
		}
		return nil, true
	}

	decoded, err := fipmsg.Decode(frame)
	if err != nil {
		if m.log != nil {
			m.log.Warn("slave %d (%s): malformed response: %v", s.index, s.name, err)
		}
		return nil, true
	}
	return decoded, false
}

// readFrameFrom reads one length-prefixed frame from s's stdout under
// deadline, draining s's stderr to the master's stderr sink while it
// waits. Shared by await_responses rounds and the tag-streaming
// sub-protocol's successive per-message reads.
func (m *MasterState) readFrameFrom(s *slave, deadline time.Duration) ([]byte, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fiptransport.DrainStderr(s.stderr, m.stderrSink())
			}
		}
	}()
	defer close(done)

	if ds, ok := s.stdout.(deadlineSetter); ok {
		_ = ds.SetReadDeadline(time.Now().Add(deadline))
		defer func() { _ = ds.SetReadDeadline(time.Time{}) }()
	}

	return fiptransport.ReadFrame(s.stdout)
}
