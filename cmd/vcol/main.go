// Package main provides the vcol command-line tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/vcol/internal/cli"

	// Register source adapters
	_ "github.com/leapstack-labs/vcol/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/vcol/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/vcol/pkg/adapters/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
