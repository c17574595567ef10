// maybetls - probe how a connection to a URL gets established: plain
// for http, TLS-upgraded for https, optionally via an SSH gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"maybetls/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "maybetls: %v\n", err)
		os.Exit(1)
	}
}
