package source

import "os"

// FileSystem is the subset of file operations a WatchedSource needs.
// It allows tests to simulate locked or unreadable files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
}

// OSFileSystem implements FileSystem using the local filesystem.
type OSFileSystem struct{}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for the named file.
func (OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
