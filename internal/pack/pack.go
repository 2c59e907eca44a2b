// Package pack bundles a CAS subgraph reachable from a single digest into a
// single portable, zstd-compressed file, and restores one back into a DB.
// It is dirtabase's analogue of the teacher's git-packfile writer: a
// length-prefixed stream of compressed objects, one per CAS entry, instead
// of git's object-type-tagged, delta-capable format.
package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/archive"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
)

var magic = [4]byte{'D', 'T', 'P', 'K'}

const packVersion uint32 = 1

// Walk returns root's own digest plus the digest of every file its Ark
// references — the full set of CAS objects that must travel together for
// root to be reconstructable in another DB. It does not recurse into
// nested Arks, since no built-in op ever nests one Ark's digest as another
// Ark's file content.
func Walk(db *archdb.DB, root digest.Digest) ([]digest.Digest, error) {
	a, err := archive.Load(db, root)
	if err != nil {
		return nil, err
	}
	seen := map[digest.Digest]bool{root: true}
	out := []digest.Digest{root}
	for _, c := range a.ContentsAt() {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// WritePack serializes the CAS objects named by digests (read from db) into
// a single byte stream: a 4-byte magic, a version, an object count, then
// each object as its digest, its uncompressed length, its compressed
// length, and its own separately zstd-compressed bytes.
func WritePack(db *archdb.DB, digests []digest.Digest) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	if err := binary.Write(&buf, binary.BigEndian, packVersion); err != nil {
		return nil, errs.E("pack.WritePack", errs.IO, err)
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(digests))); err != nil {
		return nil, errs.E("pack.WritePack", errs.IO, err)
	}

	for _, d := range digests {
		data, err := db.ReadCAS(d)
		if err != nil {
			return nil, err
		}
		var compressed bytes.Buffer
		zw, err := zstd.NewWriter(&compressed, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errs.E("pack.WritePack", errs.IO, err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, errs.E("pack.WritePack", errs.IO, err)
		}
		if err := zw.Close(); err != nil {
			return nil, errs.E("pack.WritePack", errs.IO, err)
		}

		buf.Write(d[:])
		if err := binary.Write(&buf, binary.BigEndian, uint64(len(data))); err != nil {
			return nil, errs.E("pack.WritePack", errs.IO, err)
		}
		if err := binary.Write(&buf, binary.BigEndian, uint32(compressed.Len())); err != nil {
			return nil, errs.E("pack.WritePack", errs.IO, err)
		}
		buf.Write(compressed.Bytes())
	}

	return buf.Bytes(), nil
}

// packObject is one decoded object from a pack stream.
type packObject struct {
	Digest digest.Digest
	Data   []byte
}

// ReadPack parses a byte stream produced by WritePack, verifying every
// object's content against its declared digest.
func ReadPack(data []byte) ([]packObject, error) {
	r := bytes.NewReader(data)

	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil || gotMagic != magic {
		return nil, errs.E("pack.ReadPack", errs.InvalidArchive, fmt.Errorf("bad magic"))
	}
	var version, count uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
	}
	if version != packVersion {
		return nil, errs.E("pack.ReadPack", errs.InvalidArchive, fmt.Errorf("unsupported pack version %d", version))
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
	}

	objs := make([]packObject, 0, count)
	for i := uint32(0); i < count; i++ {
		var d digest.Digest
		if _, err := io.ReadFull(r, d[:]); err != nil {
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}
		var uncompressedLen uint64
		if err := binary.Read(r, binary.BigEndian, &uncompressedLen); err != nil {
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}
		var compressedLen uint32
		if err := binary.Read(r, binary.BigEndian, &compressedLen); err != nil {
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}
		compressed := make([]byte, compressedLen)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}

		zr, err := zstd.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}
		raw := make([]byte, 0, uncompressedLen)
		out := bytes.NewBuffer(raw)
		if _, err := io.Copy(out, zr); err != nil {
			zr.Close()
			return nil, errs.E("pack.ReadPack", errs.InvalidArchive, err)
		}
		zr.Close()

		got := digest.Sum(out.Bytes())
		if got != d {
			return nil, errs.E("pack.ReadPack", errs.DigestMismatch,
				fmt.Errorf("object %d: got %s, want %s", i, got, d))
		}
		objs = append(objs, packObject{Digest: d, Data: out.Bytes()})
	}
	return objs, nil
}

// Pack walks root's CAS subgraph and returns it as a single pack file.
func Pack(db *archdb.DB, root digest.Digest) ([]byte, error) {
	digests, err := Walk(db, root)
	if err != nil {
		return nil, err
	}
	return WritePack(db, digests)
}

// Unpack writes every object in a pack file into db and returns the
// original root digest, i.e. the first object the pack carries.
func Unpack(db *archdb.DB, packData []byte) (digest.Digest, error) {
	objs, err := ReadPack(packData)
	if err != nil {
		return digest.Zero, err
	}
	if len(objs) == 0 {
		return digest.Zero, errs.E("pack.Unpack", errs.InvalidArchive, fmt.Errorf("empty pack"))
	}
	for _, o := range objs {
		if _, err := db.WriteCAS(o.Data); err != nil {
			return digest.Zero, err
		}
	}
	return objs[0].Digest, nil
}
