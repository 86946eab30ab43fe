//go:build !windows

package fswatch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports inotify resource exhaustion:
//   - ENOSPC: watch limit reached (fs.inotify.max_user_watches)
//   - EMFILE: per-process file descriptor limit
//   - ENFILE: system-wide file descriptor limit
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
