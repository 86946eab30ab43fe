// sshsearch finds SSH hosts you already know about. It watches the OpenSSH
// client config and known_hosts files, answers pattern queries over the
// hosts they name, and opens a terminal running ssh for the chosen one.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		// fang has already printed the error.
		os.Exit(1)
	}
}

func run() error {
	return fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (built: %s)", Version, BuildDate)
}
