// Package ark implements Ark[C], the immutable structure-of-arrays archive
// value at the heart of the system. An Ark bundles three parallel channels
// (paths, attrs, contents) under a handful of ordering invariants that every
// other package relies on without re-checking.
package ark

import (
	"sort"

	"github.com/dirtabase/dirtabase/internal/attrs"
	"github.com/dirtabase/dirtabase/internal/ipr"
)

// Contents distinguishes a directory entry (no payload) from a file entry
// (payload of type C). C is commonly a digest, a byte slice, or a filesystem
// path, depending on which stage of the pipeline produced the Ark.
type Contents[C any] struct {
	isFile bool
	file   C
}

// File wraps a file payload.
func File[C any](content C) Contents[C] {
	return Contents[C]{isFile: true, file: content}
}

// Dir returns a directory marker.
func Dir[C any]() Contents[C] {
	return Contents[C]{}
}

// IsFile reports whether this is a file entry.
func (c Contents[C]) IsFile() bool { return c.isFile }

// IsDir reports whether this is a directory entry.
func (c Contents[C]) IsDir() bool { return !c.isFile }

// File returns the file payload and true, or the zero value and false for a
// directory entry.
func (c Contents[C]) File() (C, bool) {
	return c.file, c.isFile
}

// Entry is one (path, attrs, contents) tuple, the unit FromEntries consumes
// and ToEntries produces.
type Entry[C any] struct {
	Path     ipr.IPR
	Attrs    attrs.Attrs
	Contents Contents[C]
}

// Ark is an immutable archive: a set of paths, each carrying Attrs, where
// files additionally carry a content payload of type C.
//
// In an Ark of length F+D (F files, D directories):
//
//  1. paths has length F+D, with no duplicates.
//  2. attrs has length F+D; attrs[i] describes paths[i].
//  3. contents has length F; contents[i] is the payload for paths[i], valid
//     only for i < F.
//  4. Paths within the file section (indices [0,F)) are strictly ascending;
//     paths within the directory section (indices [F,F+D)) are strictly
//     ascending.
//  5. File iteration yields files in ascending path order; directory
//     iteration yields directories in descending path order.
//
// The zero value is the empty Ark, the same value Empty returns.
type Ark[C any] struct {
	paths    []ipr.IPR
	attrs    []attrs.Attrs
	contents []C
	numFiles int
}

// Empty returns the Ark with no entries.
func Empty[C any]() Ark[C] {
	return Ark[C]{}
}

// Paths returns the backing path slice. Callers must not mutate it.
func (a Ark[C]) Paths() []ipr.IPR { return a.paths }

// AttrsAt returns the backing attrs slice, one per path. Callers must not
// mutate it.
func (a Ark[C]) AttrsAt() []attrs.Attrs { return a.attrs }

// ContentsAt returns the backing contents slice, one per file (length
// NumFiles, not Len). Callers must not mutate it.
func (a Ark[C]) ContentsAt() []C { return a.contents }

// NumFiles reports the number of file entries.
func (a Ark[C]) NumFiles() int { return a.numFiles }

// NumDirs reports the number of directory entries.
func (a Ark[C]) NumDirs() int { return len(a.paths) - a.numFiles }

// Len reports the total entry count, files plus directories.
func (a Ark[C]) Len() int { return len(a.paths) }

// Compose assembles an Ark from its three channels, as produced by a
// transformation that already knows it is preserving the invariants.
// It panics if the length invariants don't hold; it does not re-sort or
// re-validate path order, so callers must pass channels that already
// satisfy them.
func Compose[C any](paths []ipr.IPR, attrs []attrs.Attrs, contents []C) Ark[C] {
	if len(paths) != len(attrs) {
		panic("ark.Compose: len(paths) != len(attrs)")
	}
	if len(contents) > len(paths) {
		panic("ark.Compose: len(contents) > len(paths)")
	}
	return Ark[C]{paths: paths, attrs: attrs, contents: contents, numFiles: len(contents)}
}

// Decompose returns the three backing channels, for reuse by a caller that
// will change at most one or two of them and recompose the rest unchanged.
func (a Ark[C]) Decompose() ([]ipr.IPR, []attrs.Attrs, []C) {
	return a.paths, a.attrs, a.contents
}

// FromEntries builds an Ark from an arbitrary list of entries. Duplicate
// paths collapse to the last occurrence in src (insertion-order semantics:
// ties resolve to the later tuple, contents and all). The survivors are
// partitioned into files and directories, each partition sorted ascending
// by path, and concatenated files-then-dirs. This is the only canonicalizing
// constructor; every other Ark-producing function in this module must
// eventually bottom out here or in Compose over already-canonical channels.
func FromEntries[C any](src []Entry[C]) Ark[C] {
	uniq := make(map[ipr.IPR]Entry[C], len(src))
	order := make([]ipr.IPR, 0, len(src))
	for _, e := range src {
		if _, seen := uniq[e.Path]; !seen {
			order = append(order, e.Path)
		}
		uniq[e.Path] = e
	}

	files := make([]Entry[C], 0, len(order))
	dirs := make([]Entry[C], 0, len(order))
	for _, p := range order {
		e := uniq[p]
		if e.Contents.IsFile() {
			files = append(files, e)
		} else {
			dirs = append(dirs, e)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path.Less(files[j].Path) })
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path.Less(dirs[j].Path) })

	paths := make([]ipr.IPR, 0, len(files)+len(dirs))
	at := make([]attrs.Attrs, 0, len(files)+len(dirs))
	contents := make([]C, 0, len(files))
	for _, e := range files {
		paths = append(paths, e.Path)
		at = append(at, e.Attrs)
		c, _ := e.Contents.File()
		contents = append(contents, c)
	}
	for _, e := range dirs {
		paths = append(paths, e.Path)
		at = append(at, e.Attrs)
	}
	return Compose(paths, at, contents)
}

// ToEntries expands an Ark back into its flat entry list, in canonical
// storage order (files ascending, then directories ascending).
func (a Ark[C]) ToEntries() []Entry[C] {
	out := make([]Entry[C], len(a.paths))
	for i, p := range a.paths {
		if i < a.numFiles {
			out[i] = Entry[C]{Path: p, Attrs: a.attrs[i], Contents: File(a.contents[i])}
		} else {
			out[i] = Entry[C]{Path: p, Attrs: a.attrs[i], Contents: Dir[C]()}
		}
	}
	return out
}

// FileEntry is one file yielded by Files.
type FileEntry[C any] struct {
	Path    ipr.IPR
	Attrs   attrs.Attrs
	Content C
}

// DirEntry is one directory yielded by Dirs.
type DirEntry struct {
	Path  ipr.IPR
	Attrs attrs.Attrs
}

// Files returns the file entries in ascending path order, matching their
// storage order.
func (a Ark[C]) Files() []FileEntry[C] {
	out := make([]FileEntry[C], a.numFiles)
	for i := 0; i < a.numFiles; i++ {
		out[i] = FileEntry[C]{Path: a.paths[i], Attrs: a.attrs[i], Content: a.contents[i]}
	}
	return out
}

// Dirs returns the directory entries in descending path order (most-nested
// first), even though they are stored ascending, so that consumers applying
// restrictive permissions or deletions don't lock themselves out of deeper
// work still to come.
func (a Ark[C]) Dirs() []DirEntry {
	n := a.NumDirs()
	out := make([]DirEntry, n)
	for i := 0; i < n; i++ {
		srcIdx := len(a.paths) - 1 - i
		out[i] = DirEntry{Path: a.paths[srcIdx], Attrs: a.attrs[srcIdx]}
	}
	return out
}

// Translate converts every file's content payload through f, leaving paths
// and attrs untouched and shared with src. This is the standard way to move
// an Ark from one content-channel type to another, e.g. from on-disk paths
// to content digests after importing.
func Translate[SRC, DST any](src Ark[SRC], f func(SRC) DST) Ark[DST] {
	contents := make([]DST, len(src.contents))
	for i, c := range src.contents {
		contents[i] = f(c)
	}
	return Ark[DST]{paths: src.paths, attrs: src.attrs, contents: contents, numFiles: src.numFiles}
}
