package fiplog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// roleColor picks a stable color for the role field so interleaved
// master/slave stderr output stays visually distinguishable without
// configuration.
var roleColor = color.New(color.FgCyan).SprintFunc()

var levelColor = map[Level]func(a ...interface{}) string{
	DEBUG: color.New(color.FgWhite).SprintFunc(),
	INFO:  color.New(color.FgGreen).SprintFunc(),
	WARN:  color.New(color.FgYellow).SprintFunc(),
	ERROR: color.New(color.FgRed).SprintFunc(),
	FATAL: color.New(color.FgRed, color.Bold).SprintFunc(),
}

// Logger is a leveled, role-tagged logger. One Logger is created per
// process role: "master" for the dialogue engine, "slave:<module>" for
// each interop module.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	role  string
	level Level
	color bool
	ring  *Ring

	// exit is called by Fatal after logging; overridden in tests so a
	// fatal log line doesn't tear down the test binary.
	exit func(int)
}

// New returns a Logger that writes lines at or above level to out,
// prefixed "[role] [timestamp] [LEVEL]".
func New(role string, out io.Writer, level Level) *Logger {
	return &Logger{
		out:   out,
		role:  role,
		level: level,
		ring:  NewRing(256),
		exit:  os.Exit,
	}
}

// SetColor enables ANSI coloring of the level and role fields.
func (l *Logger) SetColor(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = on
}

// WillLog reports whether a message at level would actually be emitted,
// letting callers skip formatting expensive debug output.
func (l *Logger) WillLog(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// Ring returns the bounded history of recent lines, including those
// suppressed by the level filter, used to dump recent diagnostics
// alongside a fatal handshake mismatch.
func (l *Logger) Ring() *Ring {
	return l.ring
}

// Level returns the minimum level this Logger emits, used by the
// master to pass its own verbosity down to spawned modules via argv.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) prefix(level Level) string {
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	role, lvl := l.role, level.String()
	if l.color {
		role = roleColor(l.role)
		if c, ok := levelColor[level]; ok {
			lvl = c(level.String())
		}
	}
	return fmt.Sprintf("[%s] [%s] [%s] ", role, ts, lvl)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.prefix(level) + fmt.Sprintf(format, args...)
	l.ring.Println(line)

	// Suppressed lines still land in the ring so a fatal path can dump
	// the full recent history.
	if level < l.level {
		return
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Fatal logs at FATAL and then terminates the process (os.Exit(1) by
// default).
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
	l.exit(1)
}
