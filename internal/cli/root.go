package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synqronlabs/phishcheck/config"
)

func NewRoot(version string) *cobra.Command {
	return newRoot(version, buildEvaluator)
}

func newRoot(version string, build evaluatorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phishcheck",
		Short:         "phishcheck: phishing triage for a sender address and a link",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("phishcheck {{.Version}}\n")

	cmd.PersistentFlags().String("config", "", "Config file path (defaults to "+config.EnvPrefix+"CONFIG)")
	cmd.PersistentFlags().StringSlice("env-file", nil, "Env files to load before reading config (defaults to .env when present)")

	cmd.AddCommand(newCheckCmd(build))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "phishcheck %s\n", version)
			return err
		},
	}
}

// loadConfig loads env files, then the config file named by --config or
// PHISHCHECK_CONFIG.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	envFiles, _ := flags.GetStringSlice("env-file")
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	path, _ := flags.GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	return config.Load(path)
}
