// Package cli implements the sectionvault commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/voyagen/sectionvault/internal/config"
	"github.com/voyagen/sectionvault/internal/logging"
)

var cfgFile string

// NewRootCmd builds the command tree. Running it without a subcommand serves
// the HTTP API.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sectionvault",
		Short: "Store and reconcile admin-edited section trees",
		Long: `sectionvault keeps the admin-saved section trees of every collection and
merges them with the built-in defaults on load and with the stored tree on save.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); else use environment variables")

	serve := newServeCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newMergeCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads --config when given, the environment otherwise. Without a
// database requirement a missing DATABASE_URL is not an error.
func loadConfig(requireDB bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case cfgFile != "":
		cfg, err = config.LoadFromFile(cfgFile)
	case requireDB:
		cfg, err = config.Load()
	default:
		cfg = config.LoadOptionalDB()
	}
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, nil
}
