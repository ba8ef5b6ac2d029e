package master

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/flint-lang/fip/internal/fiptransport"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// Shutdown ends the session: it broadcasts Kill{reason}, sleeps the
// grace period, then for each child drains its stderr one last time,
// waits up to one more grace period for it to exit, force-terminates it
// if it is still alive, and closes its stream handles. It is safe to call more than once (e.g. once
// from an error path and again from a deferred cleanup) since closing an
// already-closed handle or killing an already-exited process is ignored.
func (m *MasterState) Shutdown(reason fipmsg.KillReason) {
	_ = m.Broadcast(&fipmsg.Message{Type: fipmsg.Kill, Kill: &fipmsg.KillBody{Reason: reason}})
	time.Sleep(m.killGrace)

	for _, s := range m.slaves {
		fiptransport.DrainStderr(s.stderr, m.stderrSink())

		waited := make(chan error, 1)
		go func(s *slave) { waited <- s.cmd.Wait() }(s)

		select {
		case <-waited:
		case <-time.After(m.killGrace):
			killGroup(s)
			<-waited
		}

		s.stdin.Close()
		s.stdout.Close()
		s.stderr.Close()

		if m.log != nil {
			m.log.Info("slave %d (%s): shut down", s.index, s.name)
		}
	}
}

// killGroup force-terminates a straggler and any subprocess it spawned
// (a C compiler invocation, say) by signaling its whole process group,
// not just the direct child — Spawn starts every slave as its own group
// leader for exactly this reason. Falls back to killing the lone
// process if the group signal is rejected.
func killGroup(s *slave) {
	if s.cmd.Process == nil {
		return
	}
	if err := unix.Kill(-s.cmd.Process.Pid, unix.SIGKILL); err != nil {
		_ = s.cmd.Process.Kill()
	}
}
