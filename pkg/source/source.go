// Package source models the SSH files that host names are discovered from.
//
// There is a fixed set of four source kinds. Each kind maps to one file path
// and one parser. A WatchedSource keeps the last successfully parsed host list
// for its file and re-parses it whenever the file changes.
//
// Example usage:
//
//	src := source.NewWatchedSource(source.UserConfig, "/home/me/.ssh/config", sshconfig.Parse)
//	if err := src.Attach(ctx, watcher); err != nil {
//	    return err
//	}
//	defer src.Detach()
//
//	for _, h := range src.Snapshot().Hosts {
//	    log.Printf("Discovered: %s from %s", h, src.Kind())
//	}
package source

// Parser turns the raw content of a source file into an ordered list of
// host strings. Parsers must be pure and must not fail: unrecognized input
// simply contributes nothing.
type Parser func(data []byte) []string
