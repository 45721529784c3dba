// Package rootcmd wires the root cobra.Command for the spdb CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	bancmd "github.com/go-ports/spaccount/cmd/spdb/ban"
	configcmd "github.com/go-ports/spaccount/cmd/spdb/config"
	heartbeatcmd "github.com/go-ports/spaccount/cmd/spdb/heartbeat"
	initcmd "github.com/go-ports/spaccount/cmd/spdb/init"
	logincmd "github.com/go-ports/spaccount/cmd/spdb/login"
	"github.com/go-ports/spaccount/cmd/spdb/shared"
	usercmd "github.com/go-ports/spaccount/cmd/spdb/user"
	versioncmd "github.com/go-ports/spaccount/cmd/spdb/version"
)

// New creates and returns the root cobra.Command for the spdb CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "spdb",
		Short:         "Account database tool for the game servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	pf := root.PersistentFlags()
	pf.StringVar(
		&ctx.Home, "home", "",
		"Override home directory holding config.yaml and .env (default: $SPDB_HOME env, then persisted config, then ~/.spdb)",
	)
	pf.BoolVarP(&ctx.Verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		usercmd.New(ctx).Cmd(),
		bancmd.New(ctx).Cmd(),
		logincmd.New(ctx).Cmd(),
		heartbeatcmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}
