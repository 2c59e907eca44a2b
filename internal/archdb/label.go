package archdb

import (
	"os"
	"strings"
	"unicode"

	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
)

// Label is a mutable named pointer into the CAS: an "@"-prefixed name, with
// alphanumeric characters after the sigil. The core pipeline never reads or
// writes labels; this is the minimal last-write-wins store the Open
// Questions in the design notes call for, reserving the on-disk section
// without inventing unspecified semantics at the core level.
type Label string

// NewLabel validates and constructs a Label from name.
func NewLabel(name string) (Label, error) {
	if !strings.HasPrefix(name, "@") || len(name) < 2 {
		return "", errs.E("archdb.NewLabel", errs.InvalidArgument, nil)
	}
	for _, r := range name[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", errs.E("archdb.NewLabel", errs.InvalidArgument, nil)
		}
	}
	return Label(name), nil
}

// SetLabel points name at d, overwriting whatever it pointed at before.
func (db *DB) SetLabel(name Label, d digest.Digest) error {
	if err := db.writeAtomicForce(db.LabelPath(string(name)), []byte(d.String())); err != nil {
		return errs.E("archdb.SetLabel", errs.IO, err)
	}
	return nil
}

// GetLabel resolves name to the digest it currently points at.
func (db *DB) GetLabel(name Label) (digest.Digest, error) {
	data, err := os.ReadFile(db.LabelPath(string(name)))
	if err != nil {
		return digest.Zero, errs.E("archdb.GetLabel", errs.IO, err)
	}
	d, err := digest.Parse(string(data))
	if err != nil {
		return digest.Zero, errs.E("archdb.GetLabel", errs.InvalidArchive, err)
	}
	return d, nil
}

// ListLabels returns every label currently stored, unordered.
func (db *DB) ListLabels() ([]Label, error) {
	entries, err := os.ReadDir(db.Join(dirLabels))
	if err != nil {
		return nil, errs.E("archdb.ListLabels", errs.IO, err)
	}
	out := make([]Label, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, Label(e.Name()))
	}
	return out, nil
}
