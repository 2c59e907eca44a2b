//go:build unix

package fsbridge

import (
	"os"
	"syscall"
)

// statMode returns the raw st_mode bits stat(2) reports, the same numeric
// form the UNIX_MODE attribute records.
func statMode(info os.FileInfo) (uint32, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint32(st.Mode), true
}
