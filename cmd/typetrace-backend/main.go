// Command typetrace-backend is the privileged keystroke-capture daemon.
// See internal/eventhandler, internal/store and internal/paths for the
// device, persistence, and path-resolution subsystems; this package is
// the controller: argument parsing, wiring, signal handling, and the
// main loop.
package main

import (
	"os"

	"github.com/domi413/typetrace-backend/internal/apperrors"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}
