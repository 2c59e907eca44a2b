package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dirtabase/dirtabase/internal/colors"
	"github.com/dirtabase/dirtabase/internal/digest"
)

func TestMain_disablesColorForDeterministicOutput(t *testing.T) {
	colors.SetColorEnabled(false)
}

func TestOpHeaderRoutesToConfiguredSink(t *testing.T) {
	colors.SetColorEnabled(false)
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, Policy{OpHeader: SinkStdout, Stack: SinkStderr, Cmd: SinkBuffer})
	l.OpHeader("Import")
	if !strings.Contains(out.String(), "Import") {
		t.Errorf("stdout = %q, want it to contain Import", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr should be untouched by OpHeader, got %q", errOut.String())
	}
}

func TestCacheStatusWording(t *testing.T) {
	colors.SetColorEnabled(false)
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, DefaultPolicy())
	l.CacheStatus(true, false)
	if !strings.Contains(out.String(), "Can cache? true, Is in cache? false") {
		t.Errorf("got %q", out.String())
	}
}

func TestStackLogsHexDigests(t *testing.T) {
	colors.SetColorEnabled(false)
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, DefaultPolicy())
	l.Stack([]digest.Digest{digest.SumString("a")})
	if !strings.Contains(out.String(), digest.SumString("a").String()) {
		t.Errorf("got %q", out.String())
	}
}

func TestBufferSinkAccumulates(t *testing.T) {
	colors.SetColorEnabled(false)
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, Policy{OpHeader: SinkBuffer, Stack: SinkBuffer, Cmd: SinkBuffer})
	l.Cmd("echo hi")
	if !strings.Contains(l.Buffered(), "echo hi") {
		t.Errorf("Buffered() = %q", l.Buffered())
	}
	if out.Len() != 0 {
		t.Errorf("stdout should stay empty when policy routes to buffer, got %q", out.String())
	}
}

func TestSilentSinkDiscards(t *testing.T) {
	colors.SetColorEnabled(false)
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, Policy{OpHeader: SinkSilent, Stack: SinkSilent, Cmd: SinkSilent})
	l.OpHeader("Import")
	l.Stack(nil)
	l.Cmd("echo hi")
	if out.Len() != 0 || errOut.Len() != 0 || l.Buffered() != "" {
		t.Error("expected all output discarded under SinkSilent")
	}
}
