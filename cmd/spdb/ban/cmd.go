// Package bancmd implements the `spdb ban` command group.
package bancmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
)

// Command implements `spdb ban`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	duration time.Duration
}

// New creates the ban command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "ban",
		Short: "Ban users and IP addresses",
	}

	user := &cobra.Command{
		Use:   "user <user-id>",
		Short: "Ban a user account",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runUser,
	}
	ip := &cobra.Command{
		Use:   "ip <address>",
		Short: "Ban an IP address",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runIP,
	}
	for _, sub := range []*cobra.Command{user, ip} {
		sub.Flags().DurationVar(&c.duration, "for", 0, "Ban duration, e.g. 72h (0 = permanent)")
	}

	c.cmd.AddCommand(user, ip, &cobra.Command{
		Use:   "check <address>",
		Short: "Show the effective ban of an IP address",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runCheck,
	})
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runUser(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	id, err := svc.BanUser(cmd.Context(), userID, c.duration)
	if err != nil {
		return err
	}
	shared.Status(cmd.OutOrStdout(), "warn", "Banned user %d %s (ban %d)", userID, describe(c.duration), id)
	return nil
}

func (c *Command) runIP(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	id, err := svc.BanIP(cmd.Context(), args[0], c.duration)
	if err != nil {
		return err
	}
	shared.Status(cmd.OutOrStdout(), "warn", "Banned %s %s (ban %d)", args[0], describe(c.duration), id)
	return nil
}

func (c *Command) runCheck(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	ban, found, err := svc.IPBan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case !found:
		shared.Status(out, "ok", "%s is not banned", args[0])
	case ban.Active(time.Now()):
		shared.Status(out, "fail", "%s is banned (%s)", args[0], ban)
	default:
		shared.Status(out, "ok", "%s was banned %s (expired)", args[0], ban)
	}
	return nil
}

func describe(d time.Duration) string {
	if d == 0 {
		return "permanently"
	}
	return "for " + d.String()
}
