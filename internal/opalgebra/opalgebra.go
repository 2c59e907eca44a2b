// Package opalgebra defines the operation algebra: the typed opcodes a
// pipeline is built from, their stack arity, their determinism
// classification, and the left-to-right argv scanner that turns a flat
// argument list into a sequence of them.
package opalgebra

import (
	"fmt"
	"strings"

	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
)

// Code names an opcode, matching the CLI flag's long name without its
// leading "--".
type Code string

const (
	CodeEmpty          Code = "empty"
	CodeImport         Code = "import"
	CodeExport         Code = "export"
	CodeMerge          Code = "merge"
	CodePrefix         Code = "prefix"
	CodeFilter         Code = "filter"
	CodeRename         Code = "rename"
	CodeDownload       Code = "download"
	CodeDownloadImpure Code = "download-impure"
	CodeCmdImpure      Code = "cmd-impure"
)

// Op is one typed, validated pipeline instruction. Every concrete type
// below implements it.
type Op interface {
	Code() Code
	// Params reconstructs the flat argument list that would parse back into
	// this Op, the canonical form used to derive a pipeline cache key.
	Params() []string
}

type Empty struct{}
type Import struct {
	Base    string
	Targets []string
}
type Export struct{ Dest string }
type Merge struct{}
type Prefix struct{ Prefix string }
type Filter struct{ Pattern string }
type Rename struct{ Pattern, Replacement string }
type Download struct {
	URL            string
	ExpectedDigest digest.Digest
}
type DownloadImpure struct{ URL string }
type CmdImpure struct{ Command string }

func (Empty) Code() Code          { return CodeEmpty }
func (Import) Code() Code         { return CodeImport }
func (Export) Code() Code         { return CodeExport }
func (Merge) Code() Code          { return CodeMerge }
func (Prefix) Code() Code         { return CodePrefix }
func (Filter) Code() Code         { return CodeFilter }
func (Rename) Code() Code         { return CodeRename }
func (Download) Code() Code       { return CodeDownload }
func (DownloadImpure) Code() Code { return CodeDownloadImpure }
func (CmdImpure) Code() Code      { return CodeCmdImpure }

func (Empty) Params() []string  { return nil }
func (o Import) Params() []string {
	return append([]string{o.Base}, o.Targets...)
}
func (o Export) Params() []string         { return []string{o.Dest} }
func (Merge) Params() []string            { return nil }
func (o Prefix) Params() []string         { return []string{o.Prefix} }
func (o Filter) Params() []string         { return []string{o.Pattern} }
func (o Rename) Params() []string         { return []string{o.Pattern, o.Replacement} }
func (o Download) Params() []string       { return []string{o.URL, o.ExpectedDigest.String()} }
func (o DownloadImpure) Params() []string { return []string{o.URL} }
func (o CmdImpure) Params() []string      { return []string{o.Command} }

// flagToCode maps a "--"-prefixed CLI flag to its Code. Every opcode in
// §4.6 is named here, kebab-case for its multi-word forms.
var flagToCode = map[string]Code{
	"--empty":           CodeEmpty,
	"--import":          CodeImport,
	"--export":          CodeExport,
	"--merge":           CodeMerge,
	"--prefix":          CodePrefix,
	"--filter":          CodeFilter,
	"--rename":          CodeRename,
	"--download":        CodeDownload,
	"--download-impure": CodeDownloadImpure,
	"--cmd-impure":      CodeCmdImpure,
}

// Parse scans args left to right. A token starting with "--" that names a
// known opcode begins a new step; every other token is appended as a
// parameter of the most recently started step. A "--" token that doesn't
// name a known opcode, or any token preceding the first opcode, is an
// error.
func Parse(args []string) ([]Op, error) {
	type rawStep struct {
		code   Code
		params []string
	}
	var steps []rawStep
	for _, arg := range args {
		if code, ok := flagToCode[arg]; ok {
			steps = append(steps, rawStep{code: code})
			continue
		}
		if strings.HasPrefix(arg, "--") {
			return nil, errs.E("opalgebra.Parse", errs.InvalidArgument,
				fmt.Errorf("unrecognized opcode %q", arg))
		}
		if len(steps) == 0 {
			return nil, errs.E("opalgebra.Parse", errs.InvalidArgument,
				fmt.Errorf("argument %q given before the first opcode", arg))
		}
		last := &steps[len(steps)-1]
		last.params = append(last.params, arg)
	}

	ops := make([]Op, len(steps))
	for i, s := range steps {
		op, err := FromParams(s.code, s.params)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func arityErr(name string, want string, got int) error {
	return errs.E("opalgebra.FromParams", errs.InvalidArgument,
		fmt.Errorf("--%s takes %s, got %d", name, want, got))
}

// FromParams validates param count for code and constructs the
// corresponding typed Op.
func FromParams(code Code, params []string) (Op, error) {
	switch code {
	case CodeEmpty:
		if len(params) != 0 {
			return nil, arityErr("empty", "no params", len(params))
		}
		return Empty{}, nil
	case CodeImport:
		if len(params) < 1 {
			return nil, arityErr("import", "at least 1 param (base)", len(params))
		}
		return Import{Base: params[0], Targets: append([]string(nil), params[1:]...)}, nil
	case CodeExport:
		if len(params) != 1 {
			return nil, arityErr("export", "1 param (dest)", len(params))
		}
		return Export{Dest: params[0]}, nil
	case CodeMerge:
		if len(params) != 0 {
			return nil, arityErr("merge", "no params", len(params))
		}
		return Merge{}, nil
	case CodePrefix:
		if len(params) != 1 {
			return nil, arityErr("prefix", "1 param (prefix)", len(params))
		}
		return Prefix{Prefix: params[0]}, nil
	case CodeFilter:
		if len(params) != 1 {
			return nil, arityErr("filter", "1 param (pattern)", len(params))
		}
		return Filter{Pattern: params[0]}, nil
	case CodeRename:
		if len(params) != 2 {
			return nil, arityErr("rename", "2 params (pattern, replacement)", len(params))
		}
		return Rename{Pattern: params[0], Replacement: params[1]}, nil
	case CodeDownload:
		if len(params) != 2 {
			return nil, arityErr("download", "2 params (url, digest)", len(params))
		}
		d, err := digest.Parse(params[1])
		if err != nil {
			return nil, errs.E("opalgebra.FromParams", errs.InvalidArgument, err)
		}
		return Download{URL: params[0], ExpectedDigest: d}, nil
	case CodeDownloadImpure:
		if len(params) != 1 {
			return nil, arityErr("download-impure", "1 param (url)", len(params))
		}
		return DownloadImpure{URL: params[0]}, nil
	case CodeCmdImpure:
		if len(params) != 1 {
			return nil, arityErr("cmd-impure", "1 param (command)", len(params))
		}
		return CmdImpure{Command: params[0]}, nil
	default:
		return nil, errs.E("opalgebra.FromParams", errs.InvalidArgument,
			fmt.Errorf("unknown opcode %q", code))
	}
}

// Arity reports how many digests op consumes from and produces onto the
// stack, given the stack's current size. Only Merge's arity actually
// depends on stackSize (it consumes everything).
func Arity(op Op, stackSize int) (consumes, produces int) {
	switch o := op.(type) {
	case Empty:
		return 0, 1
	case Import:
		return 0, len(o.Targets)
	case Export:
		return 1, 0
	case Merge:
		return stackSize, 1
	case Prefix:
		return 1, 1
	case Filter:
		return 1, 1
	case Rename:
		return 1, 1
	case Download:
		return 0, 1
	case DownloadImpure:
		return 0, 1
	case CmdImpure:
		return 1, 1
	default:
		panic(fmt.Sprintf("opalgebra.Arity: unhandled op type %T", op))
	}
}

// Deterministic reports whether op is cache-eligible. DownloadImpure (no
// digest to verify) and CmdImpure (runs an arbitrary external command) are
// the only two that are not; Download is deterministic because its digest
// is always checked.
func Deterministic(op Op) bool {
	switch op.(type) {
	case DownloadImpure, CmdImpure:
		return false
	default:
		return true
	}
}
