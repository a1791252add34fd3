// spatialaudio computes 3D positional sound parameters for game operators
// and maps. It can answer one-off queries, serve line-delimited JSON tool
// calls on stdio, or run an HTTP server with live result streaming.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
