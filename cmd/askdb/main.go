// Command askdb asks a MySQL or PostgreSQL database questions in plain
// language.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/askdb/internal/cli"
	"github.com/koustreak/askdb/internal/errs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errs.Display(err))
		stop()
		os.Exit(1)
	}
}
