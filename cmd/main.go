// Command campaignboard serves year-over-year campaign dashboards over CSV
// exports and renders or exports single pages from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/campaignboard/internal/cli"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		// Use stderr directly; the logger may not be initialized yet.
		os.Stderr.WriteString("campaignboard: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	return cli.New(cli.Options{}).Execute(ctx, args)
}
