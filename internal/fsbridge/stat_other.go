//go:build !unix

package fsbridge

import "os"

// statMode has no raw st_mode to report on non-Unix platforms; unixMode
// falls back to Go's portable os.FileMode bits.
func statMode(info os.FileInfo) (uint32, bool) {
	return 0, false
}
