// Package archive implements the canonical wire encoding of an
// Ark[digest.Digest] and its round trip through a DB's content-addressed
// store. An Ark's digest, as used everywhere else in the system to name it,
// is simply the digest of its encoded bytes.
package archive

import (
	"encoding/json"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/ark"
	"github.com/dirtabase/dirtabase/internal/attrs"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
	"github.com/dirtabase/dirtabase/internal/ipr"
)

// wire mirrors the on-disk JSON schema exactly: field order here is field
// order on the wire, and that order (not any particular Go representation)
// is what makes the cache key and the Ark's own digest reproducible across
// platforms.
type wire struct {
	Paths    []string        `json:"paths"`
	Attrs    []attrs.Attrs   `json:"attrs"`
	Contents []digest.Digest `json:"contents"`
}

// Encode produces the canonical JSON form of a, the same bytes every time
// for an equal a, regardless of platform.
func Encode(a ark.Ark[digest.Digest]) ([]byte, error) {
	paths := a.Paths()
	strPaths := make([]string, len(paths))
	for i, p := range paths {
		strPaths[i] = p.String()
	}
	data, err := json.Marshal(wire{
		Paths:    strPaths,
		Attrs:    a.AttrsAt(),
		Contents: a.ContentsAt(),
	})
	if err != nil {
		return nil, errs.E("archive.Encode", errs.IO, err)
	}
	return data, nil
}

// Decode parses the canonical JSON form back into an Ark, re-canonicalizing
// every path. This is the one spot in the system where a byte stream from
// outside (a CAS object that could in principle have been tampered with or
// hand-edited) becomes a trusted Ark; every path is re-run through IPR
// canonicalization so a malformed archive can't smuggle a non-canonical
// path past the rest of the system.
func Decode(data []byte) (ark.Ark[digest.Digest], error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return ark.Ark[digest.Digest]{}, errs.E("archive.Decode", errs.InvalidArchive, err)
	}
	if len(w.Paths) != len(w.Attrs) {
		return ark.Ark[digest.Digest]{}, errs.E("archive.Decode", errs.InvalidArchive, nil)
	}
	if len(w.Contents) > len(w.Paths) {
		return ark.Ark[digest.Digest]{}, errs.E("archive.Decode", errs.InvalidArchive, nil)
	}
	paths := make([]ipr.IPR, len(w.Paths))
	for i, s := range w.Paths {
		paths[i] = ipr.New(s)
	}
	return ark.Compose(paths, w.Attrs, w.Contents), nil
}

// Save encodes a and writes it into the DB's CAS, returning the digest by
// which it can later be Load-ed.
func Save(db *archdb.DB, a ark.Ark[digest.Digest]) (digest.Digest, error) {
	data, err := Encode(a)
	if err != nil {
		return digest.Zero, err
	}
	d, err := db.WriteCAS(data)
	if err != nil {
		return digest.Zero, err
	}
	return d, nil
}

// Load reads and decodes the Ark named by d.
func Load(db *archdb.DB, d digest.Digest) (ark.Ark[digest.Digest], error) {
	data, err := db.ReadCAS(d)
	if err != nil {
		return ark.Ark[digest.Digest]{}, err
	}
	return Decode(data)
}
