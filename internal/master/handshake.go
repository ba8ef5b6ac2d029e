package master

import (
	"fmt"

	"github.com/flint-lang/fip/pkg/fipmsg"
)

// ErrHandshake is the sentinel cause wrapped into the error Handshake
// returns on any version mismatch or setup failure.
var ErrHandshake = fmt.Errorf("master: handshake failed")

// Handshake awaits one ConnectRequest from every spawned child and
// validates setup_ok and version against m's advertised version.
// On any mismatch it broadcasts Kill{VersionMismatch}
// and returns a non-nil error; the caller is expected to exit nonzero.
func (m *MasterState) Handshake() error {
	result, err := m.AwaitResponses(fipmsg.ConnectRequest)
	if err != nil {
		return err
	}

	if result.WrongCount > 0 {
		m.Shutdown(fipmsg.KillVersionMismatch)
		return fmt.Errorf("%w: %d slave(s) sent no valid ConnectRequest", ErrHandshake, result.WrongCount)
	}

	for _, s := range m.slaves {
		resp, ok := result.Responses[s.index]
		if !ok || resp.Type != fipmsg.ConnectRequest {
			m.Shutdown(fipmsg.KillVersionMismatch)
			return fmt.Errorf("%w: slave %d (%s) never connected", ErrHandshake, s.index, s.name)
		}

		b := resp.ConnectRequest
		if !b.SetupOK {
			m.Shutdown(fipmsg.KillVersionMismatch)
			return fmt.Errorf("%w: slave %d (%s) reported setup failure", ErrHandshake, s.index, s.name)
		}
		if b.Version != m.version {
			if m.log != nil {
				m.log.Error("slave %d (%s): version mismatch: expected v%d.%d.%d, got v%d.%d.%d",
					s.index, s.name,
					m.version.Major, m.version.Minor, m.version.Patch,
					b.Version.Major, b.Version.Minor, b.Version.Patch)
			}
			m.Shutdown(fipmsg.KillVersionMismatch)
			return fmt.Errorf("%w: slave %d (%s): expected v%d.%d.%d, got v%d.%d.%d",
				ErrHandshake, s.index, s.name,
				m.version.Major, m.version.Minor, m.version.Patch,
				b.Version.Major, b.Version.Minor, b.Version.Patch)
		}
	}

	return nil
}
