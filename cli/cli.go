// Package cli wires dirtabase's cobra command tree: a "run" subcommand
// that parses op-algebra argv and drives the pipeline executor, plus
// "pack"/"unpack"/"history"/"config" subcommands for the DB's surrounding
// tooling. Argument parsing, help/usage text, and the shell used by
// CmdImpure are the external collaborators §6 leaves to this layer.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is dirtabase's release version, printed by --version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "dirtabase",
	Short: "dirtabase is a content-addressed directory archive engine",
	Long: `dirtabase builds directory trees through a pipeline of operations --
import, download, filter, rename, merge, run a command, export -- each
one content-addressed and cached in an on-disk store.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("dirtabase version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

var showVersion bool

// Execute runs the root command, exiting nonzero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print the dirtabase version")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(packCmd, unpackCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
