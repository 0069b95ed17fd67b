// cmd/bizcrawl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/bizcrawl/internal/cli"
	"github.com/law-makers/bizcrawl/internal/ui"
)

func main() {
	// Cancel the running command on interrupt so sessions and stores are closed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
		}
		stop()
		os.Exit(1)
	}
}
