package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/aloks98/authcore/internal/logging"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	cfg     *cliConfig
	logger  *slog.Logger
	environ map[string]string
	stdin   io.Reader
}

// NewRootCmd creates the root command for authctl.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{environ: env.ToMap(os.Environ()), stdin: os.Stdin})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Administer an authcore deployment",
		Long: `authctl operates on the user and refresh token stores behind an
authcore service. Settings come from defaults, then --config, then
AUTHCORE_* environment variables, then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(path, cmd.Root().PersistentFlags(), a.environ)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(logging.Options{
				Service: "authctl",
				Version: version,
				Format:  cfg.LogFormat,
				Level:   cfg.LogLevel,
			}, cmd.ErrOrStderr())
			return nil
		},
	}

	bindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newHashCmd(a))
	cmd.AddCommand(newTokenCmd(a))
	cmd.AddCommand(newUsersCmd(a))
	cmd.AddCommand(newGCCmd(a))
	cmd.AddCommand(newMigrateCmd(a))

	return cmd
}
