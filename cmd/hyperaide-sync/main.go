// File: cmd/hyperaide-sync/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/hyperaide-sync/cmd"
	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
)

const panicLogName = "panic.log"

// Function variables for mocking in tests.
var (
	osWriteFile = os.WriteFile
	osMkdirAll  = os.MkdirAll
	osExit      = os.Exit
	execute     = cmd.Execute
)

func main() {
	defer handlePanic()

	// Cancelling the context unwinds a running capture, which removes the
	// temporary browser profile before we exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx)
	observability.Sync()
	osExit(code)
}

// run executes the command tree and maps the outcome to an exit code.
// cmd.Execute has already printed the error and its hint.
func run(ctx context.Context) int {
	if err := execute(ctx); err != nil {
		return 1
	}
	return 0
}

// panicLogPath is ~/.hyperaide-sync/panic.log, or the working directory
// when the home directory cannot be found.
func panicLogPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return panicLogName
	}
	return filepath.Join(home, ".hyperaide-sync", panicLogName)
}

// handlePanic records the crash, then exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	path := panicLogPath()

	_ = osMkdirAll(filepath.Dir(path), 0o700)
	if err := osWriteFile(path, []byte(panicMessage), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(2)
		return
	}

	fmt.Fprintf(os.Stderr, "\nhyperaide-sync crashed unexpectedly. Details were written to %s\n", path)
	fmt.Fprintf(os.Stderr, "Please include that file if you report the problem.\n")
	osExit(2)
}
