//go:build windows

package fswatch

import "fmt"

func fatalErrnoForTest() error {
	return fmt.Errorf("ReadDirectoryChangesW: %w", errnoInvalidHandle)
}
