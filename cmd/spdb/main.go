package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	rootcmd "github.com/go-ports/spaccount/cmd/spdb/root"
	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/redaction"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, redaction.Redact(err.Error(), os.Getenv(config.PasswordEnv)))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return rootcmd.New().ExecuteContext(ctx)
}
