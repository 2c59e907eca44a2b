package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/builtins"
	"github.com/dirtabase/dirtabase/internal/colors"
	"github.com/dirtabase/dirtabase/internal/config"
	"github.com/dirtabase/dirtabase/internal/fetch"
	"github.com/dirtabase/dirtabase/internal/ledger"
	"github.com/dirtabase/dirtabase/internal/logger"
	"github.com/dirtabase/dirtabase/internal/opalgebra"
	"github.com/dirtabase/dirtabase/internal/pipeline"
	"github.com/dirtabase/dirtabase/internal/shellrunner"
)

// runCmd disables cobra's own flag parsing: every "--xxx" token after "run"
// names an opcode, not a cobra flag, so the whole remainder of argv is
// handed to opalgebra.Parse verbatim. A leading "--db <path>" pair, if
// present, is stripped first and used to select the DB.
var runCmd = &cobra.Command{
	Use:                "run [--db PATH] OP [ARGS...] [OP [ARGS...] ...]",
	Short:              "run a pipeline of ops against a content-addressed DB",
	DisableFlagParsing: true,
	RunE:               runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	dbPath, rest := extractDBFlag(args)

	ops, err := opalgebra.Parse(rest)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return cmd.Help()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.DB.Path
	}

	db, err := archdb.Open(dbPath)
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, os.Stderr, logger.DefaultPolicy())
	exec := &pipeline.Executor{
		DB:  db,
		Log: log,
		Collab: builtins.Collaborators{
			DB:    db,
			Fetch: fetch.NewHTTPClient(),
			Shell: shellrunner.New(cfg.Shell.Path),
			Log:   log,
		},
	}

	result, err := exec.Run(context.Background(), ops)
	if err != nil {
		log.Error(err)
		return err
	}

	if err := recordRun(ops, result); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", colors.Dim("warning: failed to record run history: "+err.Error()))
	}

	return nil
}

// extractDBFlag strips a leading "--db <path>" pair from args, if present,
// returning the remainder unmodified for opalgebra.Parse.
func extractDBFlag(args []string) (dbPath string, rest []string) {
	if len(args) >= 2 && args[0] == "--db" {
		return args[1], args[2:]
	}
	return "", args
}

func recordRun(ops []opalgebra.Op, result pipeline.Result) error {
	path, err := config.LedgerPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	codes := make([]string, len(ops))
	hits := 0
	for i, op := range ops {
		codes[i] = string(op.Code())
	}
	for _, s := range result.Steps {
		if s.CacheHit {
			hits++
		}
	}
	_, err = l.Record(codes, result.Stack, hits, len(result.Steps))
	return err
}
