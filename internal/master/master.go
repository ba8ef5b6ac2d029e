// Package master implements the FIP master dialogue engine: spawning
// interop-module children, broadcasting requests, collecting and
// classifying their responses under per-child timeouts, and the
// tag-collection streaming sub-protocol. State lives in one MasterState
// value passed explicitly to every operation rather than behind package
// globals.
package master

import (
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/flint-lang/fip/pkg/fiplog"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// MaxSlaves is FIP_MAX_SLAVES.
const MaxSlaves = 64

const (
	defaultRoundTimeout      = time.Second
	defaultPerMessageTimeout = time.Second
	defaultKillGrace         = 100 * time.Millisecond
)

// ErrTooManySlaves is returned when Spawn is asked to launch more than
// MaxSlaves modules.
var ErrTooManySlaves = errors.New("master: module count exceeds FIP_MAX_SLAVES")

// Launcher resolves a configured module name to the executable that
// implements it. The protocol constrains only argv ([index, log level])
// and working directory; which binary backs a given module name is an
// embedder decision, exactly as config file parsing itself is a
// consumed interface.
type Launcher func(moduleName string) (path string, err error)

// DefaultLauncher resolves a module name to
// <projectRoot>/.fip/modules/<name>, the convention this repository's
// cmd/fipmaster uses.
func DefaultLauncher(projectRoot string) Launcher {
	return func(moduleName string) (string, error) {
		return filepath.Join(projectRoot, ".fip", "modules", moduleName), nil
	}
}

type slave struct {
	index  int
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// dead marks a slave whose stdin write failed during a broadcast;
	// it is skipped by future broadcasts but the round still completes
	// for the remaining slaves.
	dead bool
}

// MasterState is the master's session state for one compilation run.
type MasterState struct {
	mu      sync.Mutex
	version fipmsg.Version
	log     *fiplog.Logger

	roundTimeout      time.Duration
	perMessageTimeout time.Duration
	killGrace         time.Duration

	slaves []*slave
	faults *faultCache
}

// Option configures a MasterState at construction.
type Option func(*MasterState)

// WithRoundTimeout overrides the default 1.0s per-child await_responses
// deadline.
func WithRoundTimeout(d time.Duration) Option {
	return func(m *MasterState) { m.roundTimeout = d }
}

// WithPerMessageTimeout overrides the default 1.0s deadline applied to
// each streamed TagSymbolResponse.
func WithPerMessageTimeout(d time.Duration) Option {
	return func(m *MasterState) { m.perMessageTimeout = d }
}

// WithKillGrace overrides the default 100ms grace period between
// broadcasting Kill and force-terminating stragglers.
func WithKillGrace(d time.Duration) Option {
	return func(m *MasterState) { m.killGrace = d }
}

// New returns a MasterState advertising version, logging through log.
func New(version fipmsg.Version, log *fiplog.Logger, opts ...Option) *MasterState {
	m := &MasterState{
		version:           version,
		log:               log,
		roundTimeout:      defaultRoundTimeout,
		perMessageTimeout: defaultPerMessageTimeout,
		killGrace:         defaultKillGrace,
		faults:            newFaultCache(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MasterState) logLevel() fiplog.Level {
	if m.log == nil {
		return fiplog.INFO
	}
	return m.log.Level()
}

// Spawn launches one child process per module name, each with its own
// stdin/stdout/stderr pipe and working directory
// projectRoot, passing [slave_index_decimal, log_level_decimal] as argv.
func (m *MasterState) Spawn(projectRoot string, modules []string, launch Launcher) error {
	if len(modules) > MaxSlaves {
		return errors.Wrapf(ErrTooManySlaves, "%d requested", len(modules))
	}

	for i, name := range modules {
		path, err := launch(name)
		if err != nil {
			return errors.Wrapf(err, "resolving module %q", name)
		}

		cmd := exec.Command(path, strconv.Itoa(i), strconv.Itoa(int(m.logLevel())))
		cmd.Dir = projectRoot
		// Each slave becomes its own process-group leader so Shutdown's
		// force-kill fallback can take down a stuck compiler subprocess
		// along with the slave itself.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return errors.Wrapf(err, "module %q: stdin pipe", name)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return errors.Wrapf(err, "module %q: stdout pipe", name)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return errors.Wrapf(err, "module %q: stderr pipe", name)
		}

		if err := cmd.Start(); err != nil {
			return errors.Wrapf(err, "starting module %q", name)
		}

		m.slaves = append(m.slaves, &slave{
			index:  i,
			name:   name,
			cmd:    cmd,
			stdin:  stdin,
			stdout: stdout,
			stderr: stderr,
		})

		if m.log != nil {
			m.log.Info("spawned module %q as slave %d (pid %d)", name, i, cmd.Process.Pid)
		}
	}

	return nil
}

// NumSlaves returns the number of spawned children, live or dead.
func (m *MasterState) NumSlaves() int {
	return len(m.slaves)
}

// live returns the slaves still eligible for writes.
func (m *MasterState) live() []*slave {
	out := make([]*slave, 0, len(m.slaves))
	for _, s := range m.slaves {
		if !s.dead {
			out = append(out, s)
		}
	}
	return out
}

// slaveByIndex returns the spawned slave at index i, or nil.
func (m *MasterState) slaveByIndex(i int) *slave {
	for _, s := range m.slaves {
		if s.index == i {
			return s
		}
	}
	return nil
}
