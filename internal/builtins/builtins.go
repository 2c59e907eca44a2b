// Package builtins implements the ten concrete pipeline operations:
// Empty, Import, Export, Merge, Prefix, Filter, Rename, Download,
// DownloadImpure, and CmdImpure. Each takes the digests its op consumed
// off the stack (already split off by the executor) and returns the
// digests it produces.
package builtins

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/archive"
	"github.com/dirtabase/dirtabase/internal/ark"
	"github.com/dirtabase/dirtabase/internal/attrs"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
	"github.com/dirtabase/dirtabase/internal/fetch"
	"github.com/dirtabase/dirtabase/internal/fsbridge"
	"github.com/dirtabase/dirtabase/internal/ipr"
	"github.com/dirtabase/dirtabase/internal/opalgebra"
	"github.com/dirtabase/dirtabase/internal/shellrunner"
)

// Collaborators bundles everything a builtin needs beyond its own
// arguments and the digests the executor already split off the stack.
type Collaborators struct {
	DB    *archdb.DB
	Fetch fetch.Fetcher
	Shell shellrunner.Runner
	Log   interface {
		Cmd(string)
	}
}

// Execute dispatches op to its concrete implementation.
func Execute(ctx context.Context, op opalgebra.Op, collab Collaborators, consumed []digest.Digest) ([]digest.Digest, error) {
	switch o := op.(type) {
	case opalgebra.Empty:
		d, err := execEmpty(collab.DB)
		return []digest.Digest{d}, err
	case opalgebra.Import:
		return execImport(collab.DB, o.Base, o.Targets)
	case opalgebra.Export:
		return nil, execExport(collab.DB, consumed[0], o.Dest)
	case opalgebra.Merge:
		d, err := execMerge(collab.DB, consumed)
		return []digest.Digest{d}, err
	case opalgebra.Prefix:
		d, err := execPrefix(collab.DB, consumed[0], o.Prefix)
		return []digest.Digest{d}, err
	case opalgebra.Filter:
		d, err := execFilter(collab.DB, consumed[0], o.Pattern)
		return []digest.Digest{d}, err
	case opalgebra.Rename:
		d, err := execRename(collab.DB, consumed[0], o.Pattern, o.Replacement)
		return []digest.Digest{d}, err
	case opalgebra.Download:
		d, err := execDownload(ctx, collab, o.URL, &o.ExpectedDigest)
		return []digest.Digest{d}, err
	case opalgebra.DownloadImpure:
		d, err := execDownload(ctx, collab, o.URL, nil)
		return []digest.Digest{d}, err
	case opalgebra.CmdImpure:
		d, err := execCmdImpure(collab, consumed[0], o.Command)
		return []digest.Digest{d}, err
	default:
		return nil, errs.E("builtins.Execute", errs.Other, fmt.Errorf("unhandled op type %T", op))
	}
}

func execEmpty(db *archdb.DB) (digest.Digest, error) {
	return archive.Save(db, ark.Empty[digest.Digest]())
}

// execImport scans base/target for every target, prefixes its paths with
// target, imports the result into the CAS, and returns one digest per
// target in argument order.
func execImport(db *archdb.DB, base string, targets []string) ([]digest.Digest, error) {
	out := make([]digest.Digest, len(targets))
	for i, target := range targets {
		scanned, err := fsbridge.Scan(filepath.Join(base, target))
		if err != nil {
			return nil, err
		}
		prefixed := prependPath(scanned, target)
		imported, err := fsbridge.ImportFiles(db, prefixed)
		if err != nil {
			return nil, err
		}
		d, err := archive.Save(db, imported)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func execExport(db *archdb.DB, d digest.Digest, dest string) error {
	a, err := archive.Load(db, d)
	if err != nil {
		return err
	}
	return fsbridge.Write(db, a, dest)
}

// execMerge concatenates the entries of every consumed Ark in stack order
// (bottom first) and rebuilds via FromEntries, so the last archive wins at
// any colliding path.
func execMerge(db *archdb.DB, consumed []digest.Digest) (digest.Digest, error) {
	var entries []ark.Entry[digest.Digest]
	for _, d := range consumed {
		a, err := archive.Load(db, d)
		if err != nil {
			return digest.Zero, err
		}
		entries = append(entries, a.ToEntries()...)
	}
	return archive.Save(db, ark.FromEntries(entries))
}

// execPrefix is implemented in terms of execRename, matching a prefix to
// an anchored-at-start regex replace rather than duplicating the
// from_entries rebuild.
func execPrefix(db *archdb.DB, d digest.Digest, prefix string) (digest.Digest, error) {
	return execRename(db, d, "^", escapeReplacement(prefix)+"/")
}

func execFilter(db *archdb.DB, d digest.Digest, pattern string) (digest.Digest, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return digest.Zero, errs.E("builtins.Filter", errs.RegexInvalid, err)
	}
	a, err := archive.Load(db, d)
	if err != nil {
		return digest.Zero, err
	}
	paths, at, contents := a.Decompose()
	var outPaths []ipr.IPR
	var outAttrs []attrs.Attrs
	var outContents []digest.Digest
	for i, p := range paths {
		if !re.MatchString(p.String()) {
			continue
		}
		outPaths = append(outPaths, p)
		outAttrs = append(outAttrs, at[i])
		if i < len(contents) {
			outContents = append(outContents, contents[i])
		}
	}
	return archive.Save(db, ark.Compose(outPaths, outAttrs, outContents))
}

// execRename regex-replaces every path and rebuilds via FromEntries,
// since a rename may introduce non-canonical paths or collisions.
func execRename(db *archdb.DB, d digest.Digest, pattern, replacement string) (digest.Digest, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return digest.Zero, errs.E("builtins.Rename", errs.RegexInvalid, err)
	}
	a, err := archive.Load(db, d)
	if err != nil {
		return digest.Zero, err
	}
	entries := a.ToEntries()
	out := make([]ark.Entry[digest.Digest], len(entries))
	for i, e := range entries {
		e.Path = ipr.New(re.ReplaceAllString(e.Path.String(), replacement))
		out[i] = e
	}
	return archive.Save(db, ark.FromEntries(out))
}

// execDownload fetches url, writes its body into the CAS, optionally
// verifies it against expected, and wraps it as a single-file Ark named
// after the URL's path basename.
func execDownload(ctx context.Context, collab Collaborators, rawURL string, expected *digest.Digest) (digest.Digest, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return digest.Zero, errs.E("builtins.Download", errs.InvalidArgument,
			fmt.Errorf("url %q has no parseable path", rawURL))
	}
	name := path.Base(u.Path)

	body, err := collab.Fetch.Fetch(ctx, rawURL)
	if err != nil {
		return digest.Zero, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return digest.Zero, errs.E("builtins.Download", errs.IO, err)
	}

	d, err := collab.DB.WriteCAS(data)
	if err != nil {
		return digest.Zero, err
	}
	if expected != nil && d != *expected {
		return digest.Zero, errs.E("builtins.Download", errs.DigestMismatch,
			fmt.Errorf("got %s, want %s", d, *expected))
	}

	wrapped := ark.Compose([]ipr.IPR{ipr.New(name)}, []attrs.Attrs{attrs.New()}, []digest.Digest{d})
	return archive.Save(collab.DB, wrapped)
}

// execCmdImpure materializes the consumed Ark to a fresh temp directory,
// runs command there, and re-imports whatever files exist in that
// directory afterward as the result.
func execCmdImpure(collab Collaborators, d digest.Digest, command string) (digest.Digest, error) {
	a, err := archive.Load(collab.DB, d)
	if err != nil {
		return digest.Zero, err
	}
	dir, err := os.MkdirTemp(collab.DB.TempDir(), "cmd-impure-*")
	if err != nil {
		return digest.Zero, errs.E("builtins.CmdImpure", errs.IO, err)
	}
	defer os.RemoveAll(dir)
	if err := fsbridge.Write(collab.DB, a, dir); err != nil {
		return digest.Zero, err
	}

	if collab.Log != nil {
		collab.Log.Cmd(command)
	}
	if err := collab.Shell.Run(command, dir); err != nil {
		return digest.Zero, err
	}

	scanned, err := fsbridge.Scan(dir)
	if err != nil {
		return digest.Zero, err
	}
	return fsbridge.Import(collab.DB, scanned)
}

// prependPath rewrites every path in a to prefix + "/" + original,
// rebuilding via FromEntries.
func prependPath[C any](a ark.Ark[C], prefix string) ark.Ark[C] {
	entries := a.ToEntries()
	out := make([]ark.Entry[C], len(entries))
	for i, e := range entries {
		e.Path = ipr.New(prefix + "/" + e.Path.String())
		out[i] = e
	}
	return ark.FromEntries(out)
}

// escapeReplacement escapes literal "$" so prefix text is never
// interpreted as a regexp.ReplaceAllString backreference.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
