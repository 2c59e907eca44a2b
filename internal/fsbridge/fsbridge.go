// Package fsbridge connects Arks to the real filesystem: scanning a
// directory into an Ark, reading file bodies into memory, importing them
// into a DB's content-addressed store, and writing an Ark back out as a
// tree of files and directories.
package fsbridge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/archive"
	"github.com/dirtabase/dirtabase/internal/ark"
	"github.com/dirtabase/dirtabase/internal/attrs"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
	"github.com/dirtabase/dirtabase/internal/ipr"
)

// FilePath is the content channel produced by Scan: the absolute on-disk
// location of a file, left untouched until something reads or imports it.
type FilePath string

// Bytes is the content channel produced by Read: a file's body loaded into
// memory.
type Bytes []byte

// Temporizable is anything that can write its own content to a destination
// path, the common interface Import needs over both on-disk paths (copy)
// and in-memory bytes (write).
type Temporizable interface {
	Temporize(dest string) error
}

// Temporize for a FilePath copies the referenced file.
func (p FilePath) Temporize(dest string) error {
	src, err := os.Open(string(p))
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Temporize for Bytes writes the in-memory body directly.
func (b Bytes) Temporize(dest string) error {
	return os.WriteFile(dest, b, 0o644)
}

const unixModeAttr = "UNIX_MODE"

// Scan walks base recursively and returns an Ark[FilePath] describing it.
// Every entry carries a UNIX_MODE attribute holding the raw POSIX mode bits
// of the underlying file or directory. Symlinks and other non-regular,
// non-directory entries are rejected rather than silently skipped, as are
// names that are not valid UTF-8 (a NotUnicode error).
func Scan(base string) (ark.Ark[FilePath], error) {
	var entries []ark.Entry[FilePath]
	if err := scanDir(base, base, &entries); err != nil {
		return ark.Ark[FilePath]{}, errs.E("fsbridge.Scan", errs.IO, err)
	}
	return ark.FromEntries(entries), nil
}

func scanDir(base, cur string, out *[]ark.Entry[FilePath]) error {
	dirEntries, err := os.ReadDir(cur)
	if err != nil {
		return err
	}
	for _, de := range dirEntries {
		full := filepath.Join(cur, de.Name())
		if !utf8.ValidString(de.Name()) {
			return errs.E("fsbridge.Scan", errs.NotUnicode, fmt.Errorf("%q", full))
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, full)
		if err != nil {
			return err
		}
		if filepath.ToSlash(rel) != rel {
			rel = filepath.ToSlash(rel)
		}
		path := ipr.New(rel)
		a := attrs.Of(unixModeAttr, strconv.FormatUint(uint64(unixMode(info)), 10))

		switch {
		case info.IsDir():
			if err := scanDir(base, full, out); err != nil {
				return err
			}
			*out = append(*out, ark.Entry[FilePath]{Path: path, Attrs: a, Contents: ark.Dir[FilePath]()})
		case info.Mode().IsRegular():
			*out = append(*out, ark.Entry[FilePath]{Path: path, Attrs: a, Contents: ark.File(FilePath(full))})
		default:
			return errs.E("fsbridge.Scan", errs.IO, os.ErrInvalid)
		}
	}
	return nil
}

// Read loads every file body referenced by a into memory, returning an
// Ark[Bytes] that shares a's paths and attrs by reference.
func Read(a ark.Ark[FilePath]) (ark.Ark[Bytes], error) {
	paths, at, srcContents := a.Decompose()
	contents := make([]Bytes, len(srcContents))
	for i, c := range srcContents {
		data, err := os.ReadFile(string(c))
		if err != nil {
			return ark.Ark[Bytes]{}, errs.E("fsbridge.Read", errs.IO, err)
		}
		contents[i] = data
	}
	return ark.Compose(paths, at, contents), nil
}

// ImportFiles writes every file entry's content into db's CAS and returns
// an Ark[Digest] with the same paths and attrs. Each file is first copied
// (or written) into a unique scratch file under tmp/, then hashed, then
// renamed into place at cas/<digest>; see archdb.DB.WriteCAS for the
// rename-into-place discipline this relies on.
func ImportFiles[C Temporizable](db *archdb.DB, a ark.Ark[C]) (ark.Ark[digest.Digest], error) {
	contents := a.ContentsAt()
	digests := make([]digest.Digest, len(contents))
	for i, c := range contents {
		d, err := importOne(db, c)
		if err != nil {
			return ark.Ark[digest.Digest]{}, err
		}
		digests[i] = d
	}
	paths, at, _ := a.Decompose()
	return ark.Compose(paths, at, digests), nil
}

func importOne(db *archdb.DB, c Temporizable) (digest.Digest, error) {
	tmp, err := db.NewTempFile()
	if err != nil {
		return digest.Zero, err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := c.Temporize(tmpName); err != nil {
		return digest.Zero, errs.E("fsbridge.ImportFiles", errs.IO, err)
	}
	f, err := os.Open(tmpName)
	if err != nil {
		return digest.Zero, errs.E("fsbridge.ImportFiles", errs.IO, err)
	}
	d, err := digest.SumReader(f)
	f.Close()
	if err != nil {
		return digest.Zero, errs.E("fsbridge.ImportFiles", errs.IO, err)
	}
	if err := os.Rename(tmpName, db.CASPath(d)); err != nil {
		if _, statErr := os.Stat(db.CASPath(d)); statErr == nil {
			return d, nil
		}
		return digest.Zero, errs.E("fsbridge.ImportFiles", errs.IO, err)
	}
	return d, nil
}

// Import is ImportFiles followed by saving the resulting Ark[Digest]
// itself into the CAS, returning its digest. Callers that also need the
// Ark[Digest] (not just its digest) should call ImportFiles and
// archive.Save directly instead.
func Import[C Temporizable](db *archdb.DB, a ark.Ark[C]) (digest.Digest, error) {
	imported, err := ImportFiles(db, a)
	if err != nil {
		return digest.Zero, err
	}
	return archive.Save(db, imported)
}

// Write materializes a onto disk at dest: files are copied from the CAS
// (parent directories created as needed), then any directories that did not
// already appear as a file's parent are created, most-nested first.
func Write(db *archdb.DB, a ark.Ark[digest.Digest], dest string) error {
	for _, f := range a.Files() {
		target := filepath.Join(dest, filepath.FromSlash(f.Path.String()))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errs.E("fsbridge.Write", errs.IO, err)
		}
		data, err := db.ReadCAS(f.Content)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return errs.E("fsbridge.Write", errs.IO, err)
		}
	}
	for _, d := range a.Dirs() {
		target := filepath.Join(dest, filepath.FromSlash(d.Path.String()))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.E("fsbridge.Write", errs.IO, err)
			}
		}
	}
	return nil
}

// unixMode extracts the raw POSIX mode bits (as stat(2) would report them)
// on platforms that expose them through syscall.Stat_t, falling back to
// Go's portable os.FileMode bits elsewhere.
func unixMode(info os.FileInfo) uint32 {
	if m, ok := statMode(info); ok {
		return m
	}
	return uint32(info.Mode())
}
