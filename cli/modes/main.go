// Package main is the CLI command itself.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datasetninja/modes-cattle/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		cli.Errorf(os.Stderr, "%v", err)
	}
}
