// Package ledger records a history of pipeline runs in a small bbolt file
// kept alongside, but independent of, a DB's own cas/cache/labels/tmp
// layout: every run appends one entry naming its op sequence, its final
// stack, and how many of its steps hit the step cache.
package ledger

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
)

var bucketRuns = []byte("runs")

// Ledger is a handle to the run-history file.
type Ledger struct {
	db *bbolt.DB
}

// Run is one recorded pipeline invocation.
type Run struct {
	Seq       uint64          `json:"seq"`
	Ops       []string        `json:"ops"`
	Stack     []digest.Digest `json:"stack"`
	CacheHits int             `json:"cache_hits"`
	CacheRuns int             `json:"cache_runs"`
}

// Open opens (creating if necessary) a ledger file at path.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, errs.E("ledger.Open", errs.IO, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketRuns)
		return e
	}); err != nil {
		db.Close()
		return nil, errs.E("ledger.Open", errs.IO, err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying bbolt file.
func (l *Ledger) Close() error {
	if err := l.db.Close(); err != nil {
		return errs.E("ledger.Close", errs.IO, err)
	}
	return nil
}

// Record appends a new run entry and returns its assigned sequence number.
func (l *Ledger) Record(ops []string, stack []digest.Digest, cacheHits, cacheRuns int) (uint64, error) {
	var seq uint64
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		seq = n
		run := Run{Seq: seq, Ops: ops, Stack: stack, CacheHits: cacheHits, CacheRuns: cacheRuns}
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
	if err != nil {
		return 0, errs.E("ledger.Record", errs.IO, err)
	}
	return seq, nil
}

// List returns every recorded run in ascending sequence order.
func (l *Ledger) List() ([]Run, error) {
	var runs []Run
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, errs.E("ledger.List", errs.IO, err)
	}
	return runs, nil
}

func seqKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}
