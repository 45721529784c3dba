// Package heartbeatcmd implements the `spdb heartbeat` command.
package heartbeatcmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
	"github.com/go-ports/spaccount/internal/service"
)

// Command implements `spdb heartbeat`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	server string
}

// New creates the heartbeat command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "heartbeat <user-id>",
		Short: "Record that a user is online on the login or game server",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.server, "server", string(service.GameServer), "Server reporting the user (login | game)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Heartbeat(cmd.Context(), userID, service.Server(c.server)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s server heartbeat for user %d\n", c.server, userID)
	return nil
}
