//go:build !windows

package fswatch

import (
	"fmt"
	"syscall"
)

func fatalErrnoForTest() error {
	return fmt.Errorf("inotify_add_watch: %w", syscall.ENOSPC)
}
