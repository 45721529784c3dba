// Package configcmd implements the `spdb config` command group.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/db"
	"github.com/go-ports/spaccount/internal/redaction"
)

// Command implements `spdb config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration (secrets redacted)",
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(newSetHome())
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	home, source := config.ResolveHome()
	if c.ctx.Home != "" {
		home = c.ctx.Home
		source = "flag"
	}
	if err := config.LoadDotEnv(home); err != nil {
		return err
	}
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return err
	}

	dsn, err := db.DSN(cfg.Database)
	if err != nil {
		dsn = redaction.Redact(err.Error(), cfg.Database.Password)
	}
	data := map[string]any{
		"database": map[string]any{
			"driver":   cfg.Database.Driver,
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"user":     cfg.Database.User,
			"password": redaction.Secret(cfg.Database.Password),
			"schema":   cfg.Database.Schema,
			"path":     cfg.Database.Path,
			"dsn":      redaction.DSN(dsn),
		},
		"log": map[string]any{
			"level": cfg.Log.Level,
		},
		"home":        home,
		"home_source": source,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

func newSetHome() *cobra.Command {
	return &cobra.Command{
		Use:   "set-home <path>",
		Short: "Persist the home location (used when SPDB_HOME is unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.SetPersistedHome(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(resolved, 0o755); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persisted home: %s\n", resolved)
			fmt.Fprintln(out, "Override anytime with SPDB_HOME.")
			return nil
		},
	}
}
