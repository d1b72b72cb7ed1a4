package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/ffexec/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.CreateRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil && !cmd.Quiet(err) {
		fmt.Fprintf(os.Stderr, "ffexec: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
