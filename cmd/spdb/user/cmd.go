// Package usercmd implements the `spdb user` command group.
package usercmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-ports/spaccount/cmd/spdb/shared"
	"github.com/go-ports/spaccount/internal/models"
)

// Command implements `spdb user`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	password string
	female   bool
	ip       string
}

// New creates the user command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "user",
		Short: "Create and inspect user accounts",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runCreate,
	}
	f := create.Flags()
	f.StringVar(&c.password, "password", "", "Account password (required)")
	f.BoolVar(&c.female, "female", false, "Create a female account")
	f.StringVar(&c.ip, "ip", "", "Creation IP address")
	_ = create.MarkFlagRequired("password")

	c.cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "id <name>",
			Short: "Print the id of a user",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runID,
		},
		&cobra.Command{
			Use:   "info <user-id>",
			Short: "Show login and post-login info of a user",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runInfo,
		},
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runCreate(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	id, err := svc.Register(cmd.Context(), models.NewUser{
		Name:       args[0],
		Password:   c.password,
		IsMale:     !c.female,
		CreationIP: c.ip,
	})
	if err != nil {
		return err
	}
	shared.Status(cmd.OutOrStdout(), "ok", "Created user %s (id %d)", args[0], id)
	return nil
}

func (c *Command) runID(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	id, found, err := svc.UserID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no user named %q", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func (c *Command) runInfo(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	svc, err := c.ctx.OpenService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	login, found, err := svc.LoginInfo(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no user with id %d", userID)
	}
	post, _, err := svc.PostLoginInfo(cmd.Context(), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	gender := "male"
	if !post.IsMale {
		gender = "female"
	}
	fmt.Fprintf(out, "User %d\n", userID)
	fmt.Fprintf(out, "  deleted:           %t\n", login.IsDeleted)
	if login.Ban != nil {
		fmt.Fprintf(out, "  ban:               %s\n", login.Ban)
	} else {
		fmt.Fprintln(out, "  ban:               none")
	}
	fmt.Fprintf(out, "  gender:            %s\n", gender)
	fmt.Fprintf(out, "  auth:              %d\n", post.Auth)
	fmt.Fprintf(out, "  default character: %d\n", post.DefaultCharacter)
	fmt.Fprintf(out, "  rank:              %d (record %d)\n", post.Rank, post.RankRecord)
	fmt.Fprintf(out, "  points:            %d\n", post.Points)
	fmt.Fprintf(out, "  code:              %d\n", post.Code)
	return nil
}
