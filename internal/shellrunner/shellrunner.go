// Package shellrunner implements the external shell collaborator that
// CmdImpure spawns: a single command string run with pipefail and
// errexit semantics in a given working directory.
package shellrunner

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/dirtabase/dirtabase/internal/errs"
)

// Runner executes a shell command in a working directory.
type Runner interface {
	Run(command, dir string) error
}

// Shell spawns commands via a bash-compatible shell (pipefail is not
// POSIX sh), defaulting to "bash" on PATH.
type Shell struct {
	Path string
}

// New returns a Shell using path, or "bash" if path is empty.
func New(path string) *Shell {
	if path == "" {
		path = "bash"
	}
	return &Shell{Path: path}
}

// Run invokes command under "<path> -o pipefail -e -c <command>" with the
// given working directory, capturing combined output for the error
// message on failure.
func (s *Shell) Run(command, dir string) error {
	cmd := exec.Command(s.Path, "-o", "pipefail", "-e", "-c", command)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err == nil {
		return nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return errs.E("shellrunner.Run", errs.IO, err)
	}
	return errs.E("shellrunner.Run", errs.CommandFailure,
		fmt.Errorf("command exited %d: %s\n%s", exitErr.ExitCode(), command, out.String()))
}
