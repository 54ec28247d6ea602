package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/wordbook/internal/cli"
)

func main() {
	// cancel the running command on Ctrl+C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
