// Package initcmd implements the `spdb init` command.
package initcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
	"github.com/go-ports/spaccount/internal/config"
)

// Command implements `spdb init`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	driver string
	force  bool
}

// New creates the init command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.yaml and create the account tables",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.driver, "driver", config.DriverMySQL, "Database driver for a new config (mysql | sqlite3)")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing config.yaml")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	home := c.ctx.ResolvedHome()
	out := cmd.OutOrStdout()

	cfgPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !c.force {
		fmt.Fprintf(out, "Using existing config %s\n", cfgPath)
	} else {
		cfg := config.Default()
		cfg.Database.Driver = c.driver
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n", cfgPath)
	}

	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.InitSchema(cmd.Context()); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Fprintf(out, "Account schema ready (%s)\n", svc.Config.Database.Driver)
	return nil
}
