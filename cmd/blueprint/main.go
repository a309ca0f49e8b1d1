package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/morozRed/blueprint/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the exit code. Reports that
// already explain a failure are not followed by an error line.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := cli.NewRootCommand(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !cli.Silent(err) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
