//go:build !windows

package cli

import (
	"os"
	"syscall"
)

// A closed terminal (SIGHUP) stops a batch the same way Ctrl-C does, so the
// in-flight output file is cleaned up.
func interruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}
}
