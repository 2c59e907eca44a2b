// Command dirtabase is the CLI entry point: it delegates entirely to the
// cli package's cobra command tree.
package main

import "github.com/dirtabase/dirtabase/cli"

func main() {
	cli.Execute()
}
