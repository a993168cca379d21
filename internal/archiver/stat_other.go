//go:build !linux

package archiver

import (
	"os"
	"time"
)

type unixStat struct {
	uid   uint32
	gid   uint32
	atime time.Time
	ctime time.Time
}

// extractUnixStat has no non-Linux implementation; this module targets
// POSIX restore with the Linux stat_t layout (§3 expansion scope).
func extractUnixStat(os.FileInfo) (unixStat, bool) {
	return unixStat{}, false
}
