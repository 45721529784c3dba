// Package logincmd implements the `spdb login` command.
package logincmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
	"github.com/go-ports/spaccount/internal/models"
)

// Command implements `spdb login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	password string
	ip       string
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login <name>",
		Short: "Run the login server checks for a user",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.password, "password", "", "Password to check")
	f.StringVar(&c.ip, "ip", "", "Client IP address")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Login(cmd.Context(), args[0], c.password, c.ip)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.OK() {
		msg := fmt.Sprintf("Login rejected: %s", res.Outcome)
		if res.Ban != nil {
			msg += " (" + res.Ban.String() + ")"
		}
		shared.Status(out, "fail", "%s", msg)
		return fmt.Errorf("login %s: %s", args[0], res.Outcome)
	}

	shared.Status(out, "ok", "Login ok: user %d", res.UserID)
	printPostInfo(cmd, res.PostInfo)
	return nil
}

func printPostInfo(cmd *cobra.Command, p *models.UserPostLoginInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  auth %d, default character %d, rank %d/%d, points %d, code %d\n",
		p.Auth, p.DefaultCharacter, p.Rank, p.RankRecord, p.Points, p.Code)
}
