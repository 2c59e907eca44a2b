package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/internal/colors"
	"github.com/dirtabase/dirtabase/internal/config"
	"github.com/dirtabase/dirtabase/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list previously run pipelines and their cache behavior",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	runs, err := l.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(colors.Dim("no recorded runs"))
		return nil
	}
	for _, r := range runs {
		top := "(empty)"
		if len(r.Stack) > 0 {
			top = r.Stack[len(r.Stack)-1].String()
		}
		fmt.Printf("%s  %-40s  top=%s  cache=%d/%d\n",
			colors.Bold(fmt.Sprintf("#%d", r.Seq)),
			strings.Join(r.Ops, " "),
			colors.Dim(top),
			r.CacheHits, r.CacheRuns)
	}
	return nil
}
