// Package logger implements the pipeline's three-channel log: an
// "opheader" line before each operation, a "stack" dump of digests after
// it runs, and a "cmd" echo of any external command a step spawns. Each
// channel is independently routed to stdout, stderr, or an in-memory
// buffer, mirroring the source project's WriteBackend-per-channel design.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dirtabase/dirtabase/internal/colors"
	"github.com/dirtabase/dirtabase/internal/digest"
)

// Sink names where a channel's output goes.
type Sink int

const (
	SinkStdout Sink = iota
	SinkStderr
	SinkBuffer
	SinkSilent
)

// Policy assigns a Sink to each of the three channels.
type Policy struct {
	OpHeader Sink
	Stack    Sink
	Cmd      Sink
}

// DefaultPolicy routes every channel to stdout, the logger's out-of-the-box
// behavior when run as a CLI.
func DefaultPolicy() Policy {
	return Policy{OpHeader: SinkStdout, Stack: SinkStdout, Cmd: SinkStdout}
}

// Logger writes the three pipeline channels to their configured sinks.
type Logger struct {
	stdout io.Writer
	stderr io.Writer
	buffer *bytes.Buffer
	policy Policy
}

// New returns a Logger writing real output to stdout and stderr, per
// policy, with SinkBuffer entries accumulating in an internal buffer
// retrievable via Buffered.
func New(stdout, stderr io.Writer, policy Policy) *Logger {
	return &Logger{stdout: stdout, stderr: stderr, buffer: &bytes.Buffer{}, policy: policy}
}

// Buffered returns everything written to SinkBuffer channels so far.
func (l *Logger) Buffered() string {
	return l.buffer.String()
}

func (l *Logger) writerFor(s Sink) io.Writer {
	switch s {
	case SinkStdout:
		return l.stdout
	case SinkStderr:
		return l.stderr
	case SinkBuffer:
		return l.buffer
	default:
		return io.Discard
	}
}

// OpHeader logs the name of an operation about to run.
func (l *Logger) OpHeader(name string) {
	fmt.Fprintf(l.writerFor(l.policy.OpHeader), "%s\n", colors.Bold("--- "+name+" ---"))
}

// CacheStatus logs whether a step was cache-eligible and whether it hit,
// matching the wording the worked example in §8 expects: "Can cache? %v,
// Is in cache? %v".
func (l *Logger) CacheStatus(canCache, hit bool) {
	line := fmt.Sprintf("Can cache? %v, Is in cache? %v", canCache, hit)
	if hit {
		line = colors.Hit(line)
	} else if canCache {
		line = colors.Miss(line)
	} else {
		line = colors.Gray(line)
	}
	fmt.Fprintf(l.writerFor(l.policy.OpHeader), "%s\n", line)
}

// Stack logs the current stack of digests after a step completes.
func (l *Logger) Stack(stack []digest.Digest) {
	hexes := make([]string, len(stack))
	for i, d := range stack {
		hexes[i] = d.String()
	}
	fmt.Fprintf(l.writerFor(l.policy.Stack), "%s\n", colors.Dim("stack: ["+strings.Join(hexes, ", ")+"]"))
}

// Cmd echoes an external command line before it runs.
func (l *Logger) Cmd(command string) {
	fmt.Fprintf(l.writerFor(l.policy.Cmd), "%s\n", colors.Cmd("$ "+command))
}

// Error logs a pipeline-ending failure to stderr, unconditionally of
// channel policy, since the user must see it regardless of configured
// routing.
func (l *Logger) Error(err error) {
	fmt.Fprintf(l.stderr, "%s\n", colors.ErrorText(err.Error()))
}
