package source

import (
	"context"
	"time"
)

// Op describes what happened to a watched file.
type Op int

const (
	// OpCreated means the file appeared.
	OpCreated Op = iota + 1

	// OpModified means the file content or metadata changed.
	OpModified

	// OpDeleted means the file was removed.
	OpDeleted

	// OpRenamed means the file was renamed away (often an atomic replace).
	OpRenamed
)

// String returns a lowercase name for the operation.
func (o Op) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpModified:
		return "modified"
	case OpDeleted:
		return "deleted"
	case OpRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a notification that a watched path changed.
type ChangeEvent struct {
	Path string
	Op   Op
}

// Subscriber delivers change notifications for individual file paths.
//
// Watch returns a channel of events for path. The channel is closed when ctx
// is cancelled or the subscriber shuts down. The path does not need to exist
// when Watch is called; its creation is reported as OpCreated.
type Subscriber interface {
	Watch(ctx context.Context, path string) (<-chan ChangeEvent, error)
}

// WatchConfig holds configuration for detecting source file changes.
type WatchConfig struct {
	// Method controls how file changes are detected.
	// Values: "auto", "inotify", "poll"
	// Default is "auto" (tries inotify, falls back to poll where a directory
	// cannot be watched).
	Method WatchMethodType

	// PollInterval is how often polled files are checked for changes.
	PollInterval time.Duration
}

// DefaultWatchConfig returns a config with sensible defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Method:       WatchMethodAuto,
		PollInterval: 5 * time.Second,
	}
}

// WatchMethodType represents the method used to detect file changes.
type WatchMethodType string

const (
	// WatchMethodAuto tries inotify first, falls back to poll.
	WatchMethodAuto WatchMethodType = "auto"

	// WatchMethodInotify uses filesystem notifications for instant change detection.
	// Fails on network mounts (NFS, CIFS, Ceph).
	WatchMethodInotify WatchMethodType = "inotify"

	// WatchMethodPoll periodically checks file mtimes.
	// Works everywhere, including network mounts.
	WatchMethodPoll WatchMethodType = "poll"
)
