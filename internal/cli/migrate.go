package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending database migrations and exit",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			src := store.MigrationsURL(cfg.MigrationsPath)
			if err := store.RunMigrations(cfg.DatabaseURL, src); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logging.Info().Str("source", src).Msg("migrations applied")
			return nil
		},
	}
}
