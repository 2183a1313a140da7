// Command attreval scores attribute predictions and runs the prediction
// pipeline over a test table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/attreval/internal/app"
	"github.com/okian/attreval/internal/config"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and maps the outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case service.IsNotFound(err):
		fmt.Fprintf(stderr, "not found: %v\n", err)
		return exitNotFound
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrLoadConfig):
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFailure
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}
