// Package archdb implements the on-disk database: a directory holding a
// content-addressed store, a deterministic-step cache, a reserved labels
// section, and scratch space, all written with atomic rename-into-place
// semantics.
package archdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
)

const (
	dirCAS    = "cas"
	dirCache  = "cache"
	dirLabels = "labels"
	dirTmp    = "tmp"
)

// DB is a handle to an on-disk database. A DB is either persistent (an
// explicit, caller-owned directory) or temporary (a directory this handle
// owns and removes on Close).
type DB struct {
	root     string
	ownsRoot bool
}

// Open opens (creating if necessary) a persistent DB rooted at path. Calling
// Open repeatedly on the same path is safe and idempotent.
func Open(path string) (*DB, error) {
	if err := initSections(path); err != nil {
		return nil, errs.E("archdb.Open", errs.IO, err)
	}
	return &DB{root: path}, nil
}

// OpenTemp creates a fresh temporary directory and initializes it as a DB.
// Close removes the entire tree.
func OpenTemp() (*DB, error) {
	root, err := os.MkdirTemp("", "dirtabase-db-*")
	if err != nil {
		return nil, errs.E("archdb.OpenTemp", errs.IO, err)
	}
	if err := initSections(root); err != nil {
		os.RemoveAll(root)
		return nil, errs.E("archdb.OpenTemp", errs.IO, err)
	}
	return &DB{root: root, ownsRoot: true}, nil
}

func initSections(root string) error {
	for _, section := range []string{dirCAS, dirCache, dirLabels, dirTmp} {
		if err := os.MkdirAll(filepath.Join(root, section), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the DB handle, removing its backing directory if this
// handle owns a temporary one. Closing a persistent DB is a no-op.
func (db *DB) Close() error {
	if !db.ownsRoot {
		return nil
	}
	return os.RemoveAll(db.root)
}

// Root returns the DB's root directory.
func (db *DB) Root() string { return db.root }

// Join joins path elements onto the DB root.
func (db *DB) Join(elem ...string) string {
	return filepath.Join(append([]string{db.root}, elem...)...)
}

// CASPath returns the path at which d's content would be stored.
func (db *DB) CASPath(d digest.Digest) string {
	return db.Join(dirCAS, d.String())
}

// CachePath returns the path at which a cache entry for key would be
// stored.
func (db *DB) CachePath(key digest.Digest) string {
	return db.Join(dirCache, key.String())
}

// LabelPath returns the path of a reserved label file. name must already
// include its leading '@'.
func (db *DB) LabelPath(name string) string {
	return db.Join(dirLabels, name)
}

// TempDir returns the DB's scratch directory, suitable as the parent of a
// caller-created temporary directory or file.
func (db *DB) TempDir() string {
	return db.Join(dirTmp)
}

// WriteCAS content-addresses data: it hashes data, and if an object with
// that digest is not already present, atomically writes it (via a temp file
// in tmp/ followed by a rename). Concurrent writers of identical content
// race harmlessly, since the final rename target is the same and the bytes
// are identical by construction.
func (db *DB) WriteCAS(data []byte) (digest.Digest, error) {
	d := digest.Sum(data)
	if err := db.writeAtomic(db.CASPath(d), data); err != nil {
		return digest.Zero, errs.E("archdb.WriteCAS", errs.IO, err)
	}
	return d, nil
}

// ReadCAS reads the object named by d.
func (db *DB) ReadCAS(d digest.Digest) ([]byte, error) {
	data, err := os.ReadFile(db.CASPath(d))
	if err != nil {
		return nil, errs.E("archdb.ReadCAS", errs.IO, err)
	}
	return data, nil
}

// HasCAS reports whether an object named by d is already stored.
func (db *DB) HasCAS(d digest.Digest) (bool, error) {
	_, err := os.Stat(db.CASPath(d))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.E("archdb.HasCAS", errs.IO, err)
}

// WriteCache atomically writes a cache entry under key.
func (db *DB) WriteCache(key digest.Digest, data []byte) error {
	if err := db.writeAtomic(db.CachePath(key), data); err != nil {
		return errs.E("archdb.WriteCache", errs.IO, err)
	}
	return nil
}

// ReadCache reads the cache entry under key, reporting whether one exists.
// A missing cache entry is not an error: callers should treat it as "no
// cached result" and fall through to recomputation.
func (db *DB) ReadCache(key digest.Digest) (data []byte, found bool, err error) {
	data, readErr := os.ReadFile(db.CachePath(key))
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, false, nil
		}
		return nil, false, errs.E("archdb.ReadCache", errs.IO, readErr)
	}
	return data, true, nil
}

// writeAtomic writes data to a unique temp file under tmp/ and renames it
// into place at dest. If dest already exists (the common CAS case: content
// already written by a prior or concurrent writer) it is left untouched and
// nothing is written.
func (db *DB) writeAtomic(dest string, data []byte) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	return db.writeAtomicForce(dest, data)
}

// writeAtomicForce always (re)writes dest, for callers like label updates
// where overwriting an existing target is the point.
func (db *DB) writeAtomicForce(dest string, data []byte) error {
	tmp, err := os.CreateTemp(db.TempDir(), "write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// NewTempFile creates a new, empty scratch file under tmp/, for callers
// (such as fsbridge's import step) that need a named file to write into
// before its final digest is known.
func (db *DB) NewTempFile() (*os.File, error) {
	f, err := os.CreateTemp(db.TempDir(), "import-*")
	if err != nil {
		return nil, errs.E("archdb.NewTempFile", errs.IO, err)
	}
	return f, nil
}
