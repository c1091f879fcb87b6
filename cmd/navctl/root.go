package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	infraconfig "github.com/Eninte/ai-resource-navigator/infrastructure/config"
	"github.com/Eninte/ai-resource-navigator/internal/config"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "navctl",
		Short:         "Operator tools for the AI resource navigator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yml or $CONFIG_PATH)")

	root.AddCommand(
		hashPasswordCmd(),
		hashIPCmd(opts),
		issueTokenCmd(opts),
		verifyTokenCmd(opts),
		seedCmd(opts),
		statsCmd(opts),
	)
	return root
}

// load reads configuration without validating it; each command checks
// only what it needs.
func (o *options) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = infraconfig.GetConfigPath("config.yml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
