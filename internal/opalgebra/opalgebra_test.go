package opalgebra

import (
	"strings"
	"testing"

	"github.com/dirtabase/dirtabase/internal/digest"
)

func TestParseEmpty(t *testing.T) {
	ops, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("len(ops) = %d, want 0", len(ops))
	}
}

func TestParseOneImport(t *testing.T) {
	ops, err := Parse([]string{"--import", "base", "target"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1", len(ops))
	}
	imp, ok := ops[0].(Import)
	if !ok {
		t.Fatalf("ops[0] = %T, want Import", ops[0])
	}
	if imp.Base != "base" || len(imp.Targets) != 1 || imp.Targets[0] != "target" {
		t.Errorf("Import = %+v, want Base=base Targets=[target]", imp)
	}
}

func TestParseTwoImportsChained(t *testing.T) {
	ops, err := Parse([]string{"--import", "base1", "t1", "t2", "--import", "base2", "t3"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}
	first := ops[0].(Import)
	if first.Base != "base1" || len(first.Targets) != 2 {
		t.Errorf("first = %+v", first)
	}
	second := ops[1].(Import)
	if second.Base != "base2" || len(second.Targets) != 1 {
		t.Errorf("second = %+v", second)
	}
}

func TestParseRejectsArgumentBeforeOpcode(t *testing.T) {
	_, err := Parse([]string{"stray"})
	if err == nil {
		t.Fatal("expected error for a leading non-opcode argument")
	}
}

func TestParseRejectsUnknownOpcode(t *testing.T) {
	_, err := Parse([]string{"--not-a-real-opcode"})
	if err == nil {
		t.Fatal("expected error for an unrecognized opcode")
	}
}

func TestParseFullPipeline(t *testing.T) {
	args := []string{
		"--import", "base", "target",
		"--prefix", "out/",
		"--filter", `\.txt$`,
		"--export", "dest",
	}
	ops, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wantCodes := []Code{CodeImport, CodePrefix, CodeFilter, CodeExport}
	if len(ops) != len(wantCodes) {
		t.Fatalf("len(ops) = %d, want %d", len(ops), len(wantCodes))
	}
	for i, want := range wantCodes {
		if ops[i].Code() != want {
			t.Errorf("ops[%d].Code() = %q, want %q", i, ops[i].Code(), want)
		}
	}
}

func TestFromParamsArityValidation(t *testing.T) {
	cases := []struct {
		code   Code
		params []string
		ok     bool
	}{
		{CodeEmpty, nil, true},
		{CodeEmpty, []string{"x"}, false},
		{CodeImport, nil, false},
		{CodeImport, []string{"base"}, true},
		{CodeImport, []string{"base", "t1", "t2"}, true},
		{CodeExport, []string{"dest"}, true},
		{CodeExport, nil, false},
		{CodeExport, []string{"a", "b"}, false},
		{CodeMerge, nil, true},
		{CodeMerge, []string{"x"}, false},
		{CodePrefix, []string{"p"}, true},
		{CodePrefix, nil, false},
		{CodeFilter, []string{"pat"}, true},
		{CodeRename, []string{"pat", "repl"}, true},
		{CodeRename, []string{"pat"}, false},
		{CodeDownloadImpure, []string{"http://x"}, true},
		{CodeCmdImpure, []string{"echo hi"}, true},
	}
	for _, c := range cases {
		_, err := FromParams(c.code, c.params)
		if c.ok && err != nil {
			t.Errorf("FromParams(%s, %v): unexpected error: %v", c.code, c.params, err)
		}
		if !c.ok && err == nil {
			t.Errorf("FromParams(%s, %v): expected error, got none", c.code, c.params)
		}
	}
}

func TestFromParamsDownloadRequiresValidDigest(t *testing.T) {
	good := digest.SumString("anything").String()
	if _, err := FromParams(CodeDownload, []string{"http://example/x", good}); err != nil {
		t.Fatalf("FromParams with valid digest: %v", err)
	}
	if _, err := FromParams(CodeDownload, []string{"http://example/x", "not-hex"}); err == nil {
		t.Error("expected error for a malformed digest param")
	}
	if _, err := FromParams(CodeDownload, []string{"http://example/x"}); err == nil {
		t.Error("expected arity error for missing digest param")
	}
}

func TestArity(t *testing.T) {
	cases := []struct {
		op             Op
		stackSize      int
		wantC, wantP int
	}{
		{Empty{}, 0, 0, 1},
		{Import{Base: "b", Targets: []string{"a", "b", "c"}}, 0, 0, 3},
		{Import{Base: "b"}, 0, 0, 0},
		{Export{Dest: "d"}, 1, 1, 0},
		{Merge{}, 5, 5, 1},
		{Merge{}, 0, 0, 1},
		{Prefix{Prefix: "p"}, 1, 1, 1},
		{Filter{Pattern: "p"}, 1, 1, 1},
		{Rename{Pattern: "p", Replacement: "r"}, 1, 1, 1},
		{Download{URL: "u"}, 0, 0, 1},
		{DownloadImpure{URL: "u"}, 0, 0, 1},
		{CmdImpure{Command: "c"}, 1, 1, 1},
	}
	for _, c := range cases {
		gotC, gotP := Arity(c.op, c.stackSize)
		if gotC != c.wantC || gotP != c.wantP {
			t.Errorf("Arity(%+v, %d) = (%d, %d), want (%d, %d)",
				c.op, c.stackSize, gotC, gotP, c.wantC, c.wantP)
		}
	}
}

func TestDeterministic(t *testing.T) {
	det := []Op{Empty{}, Import{Base: "b"}, Export{Dest: "d"}, Merge{}, Prefix{Prefix: "p"},
		Filter{Pattern: "p"}, Rename{Pattern: "p", Replacement: "r"}, Download{URL: "u"}}
	for _, op := range det {
		if !Deterministic(op) {
			t.Errorf("Deterministic(%T) = false, want true", op)
		}
	}
	notDet := []Op{DownloadImpure{URL: "u"}, CmdImpure{Command: "c"}}
	for _, op := range notDet {
		if Deterministic(op) {
			t.Errorf("Deterministic(%T) = true, want false", op)
		}
	}
}

func TestParamsRoundTripThroughFromParams(t *testing.T) {
	originals := []struct {
		code   Code
		params []string
	}{
		{CodeImport, []string{"base", "t1", "t2"}},
		{CodeExport, []string{"dest"}},
		{CodePrefix, []string{"out/"}},
		{CodeRename, []string{"^a", "b"}},
		{CodeDownloadImpure, []string{"http://x"}},
		{CodeCmdImpure, []string{"echo hi"}},
	}
	for _, o := range originals {
		op, err := FromParams(o.code, o.params)
		if err != nil {
			t.Fatalf("FromParams(%s): %v", o.code, err)
		}
		got := op.Params()
		if strings.Join(got, "\x00") != strings.Join(o.params, "\x00") {
			t.Errorf("%s: Params() = %v, want %v", o.code, got, o.params)
		}
	}
}
