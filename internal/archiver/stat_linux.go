//go:build linux

package archiver

import (
	"os"
	"syscall"
	"time"
)

type unixStat struct {
	uid   uint32
	gid   uint32
	atime time.Time
	ctime time.Time
}

// extractUnixStat pulls the POSIX fields node.go's TreeNode expansion adds
// (uid, gid, atime, ctime) out of the platform-specific os.FileInfo.Sys().
func extractUnixStat(info os.FileInfo) (unixStat, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return unixStat{}, false
	}

	return unixStat{
		uid:   st.Uid,
		gid:   st.Gid,
		atime: time.Unix(st.Atim.Sec, st.Atim.Nsec),
		ctime: time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
	}, true
}
