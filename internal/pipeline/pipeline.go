// Package pipeline runs a parsed sequence of ops as a stack machine: each
// op consumes some digests off the top of the stack and pushes the ones it
// produces. Deterministic ops are cached under a key derived from their own
// tagged form plus the digests they consumed, so re-running an identical
// step is a cache lookup instead of a re-execution.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/builtins"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/errs"
	"github.com/dirtabase/dirtabase/internal/logger"
	"github.com/dirtabase/dirtabase/internal/opalgebra"
)

// Executor runs a pipeline against a DB, logging each step and consulting
// the cache for any op marked deterministic.
type Executor struct {
	DB     *archdb.DB
	Log    *logger.Logger
	Collab builtins.Collaborators
}

// StepResult records one op's cache behavior, for callers (such as a
// ledger) that want a summary without re-deriving it from log output.
type StepResult struct {
	Op       opalgebra.Op
	CanCache bool
	CacheHit bool
}

// Result is the outcome of running a whole pipeline.
type Result struct {
	Stack []digest.Digest
	Steps []StepResult
}

// Run executes ops in order against an initially empty stack and returns
// the final stack along with a per-step cache summary.
func (e *Executor) Run(ctx context.Context, ops []opalgebra.Op) (Result, error) {
	var stack []digest.Digest
	var steps []StepResult

	for _, op := range ops {
		if e.Log != nil {
			e.Log.OpHeader(string(op.Code()))
		}

		consumes, produces := opalgebra.Arity(op, len(stack))
		if len(stack) < consumes {
			return Result{}, errs.E("pipeline.Run", errs.StackUnderflow,
				fmt.Errorf("%s needs %d value(s) on the stack, have %d", op.Code(), consumes, len(stack)))
		}
		split := len(stack) - consumes
		consumed := append([]digest.Digest(nil), stack[split:]...)
		remaining := stack[:split]

		det := opalgebra.Deterministic(op)
		key, err := cacheKey(op, consumed, produces)
		if err != nil {
			return Result{}, err
		}

		var produced []digest.Digest
		hit := false
		if det {
			cached, found, err := readCache(e.DB, key)
			if err != nil {
				return Result{}, err
			}
			if found {
				produced = cached
				hit = true
			}
		}

		if produced == nil {
			produced, err = builtins.Execute(ctx, op, e.Collab, consumed)
			if err != nil {
				return Result{}, err
			}
			if len(produced) != produces {
				return Result{}, errs.E("pipeline.Run", errs.Other,
					fmt.Errorf("%s produced %d digest(s), want %d", op.Code(), len(produced), produces))
			}
			if det {
				if err := writeCache(e.DB, key, produced); err != nil {
					return Result{}, err
				}
			}
		}

		stack = append(remaining, produced...)
		if e.Log != nil {
			e.Log.CacheStatus(det, hit)
			e.Log.Stack(stack)
		}
		steps = append(steps, StepResult{Op: op, CanCache: det, CacheHit: hit})
	}

	return Result{Stack: stack, Steps: steps}, nil
}

// opTagged is an op's wire form for cache-key derivation: its code plus its
// flat parameter list, in the fixed field order canonical JSON requires.
type opTagged struct {
	Code   string   `json:"code"`
	Params []string `json:"params"`
}

// readyStep is the canonical-JSON envelope whose digest is a step's cache
// key: the op that ran, what it consumed, and how many digests it produces.
type readyStep struct {
	Op       opTagged        `json:"op"`
	Consumed []digest.Digest `json:"consumed"`
	Produces int             `json:"produces"`
}

func cacheKey(op opalgebra.Op, consumed []digest.Digest, produces int) (digest.Digest, error) {
	params := op.Params()
	if params == nil {
		params = []string{}
	}
	if consumed == nil {
		consumed = []digest.Digest{}
	}
	step := readyStep{
		Op:       opTagged{Code: string(op.Code()), Params: params},
		Consumed: consumed,
		Produces: produces,
	}
	data, err := json.Marshal(step)
	if err != nil {
		return digest.Zero, errs.E("pipeline.cacheKey", errs.Other, err)
	}
	return digest.Sum(data), nil
}

func readCache(db *archdb.DB, key digest.Digest) ([]digest.Digest, bool, error) {
	data, found, err := db.ReadCache(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var out []digest.Digest
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, errs.E("pipeline.readCache", errs.InvalidArchive, err)
	}
	return out, true, nil
}

func writeCache(db *archdb.DB, key digest.Digest, produced []digest.Digest) error {
	if produced == nil {
		produced = []digest.Digest{}
	}
	data, err := json.Marshal(produced)
	if err != nil {
		return errs.E("pipeline.writeCache", errs.Other, err)
	}
	return db.WriteCache(key, data)
}
