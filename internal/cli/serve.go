package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voyagen/sectionvault/internal/cache"
	"github.com/voyagen/sectionvault/internal/defaults"
	"github.com/voyagen/sectionvault/internal/editor"
	"github.com/voyagen/sectionvault/internal/fetcher"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/server"
	"github.com/voyagen/sectionvault/internal/service"
	"github.com/voyagen/sectionvault/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		inMemory     bool
		defaultsFile string
		port         string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the collection and session API.

Examples:
  sectionvault serve
  sectionvault serve --config sectionvault.yaml
  sectionvault serve --in-memory --port 9000`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(!inMemory)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if port != "" {
				cfg.ServerPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			provider, err := loadDefaults(defaultsFile)
			if err != nil {
				return err
			}

			var st store.Store
			if inMemory {
				st = store.NewMemory()
				logging.Warn().Msg("using in-memory store; saved trees are lost on exit")
			} else {
				if err := store.RunMigrations(cfg.DatabaseURL, store.MigrationsURL(cfg.MigrationsPath)); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("db: %w", err)
				}
				defer pg.Close()
				st = pg
			}

			var (
				rds      *cache.Redis
				sessions editor.Store = editor.NewMemoryStore()
			)
			if cfg.RedisURL != "" {
				rds, err = cache.New(cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				defer rds.Close()
				if err := rds.Ping(ctx); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				cached := store.NewCachedStore(st, rds)
				cached.Flush(ctx)
				st = cached
				sessions = editor.NewRedisStore(rds, cfg.SessionTTL)
				logging.Info().Msg("redis connected (caching, shared sessions and save locks enabled)")
			} else {
				logging.Info().Msg("redis disabled (REDIS_URL not set); sessions and save locks are per process")
			}

			rec := service.NewReconciler(provider, st, service.Options{Redis: rds, LockTTL: cfg.SaveLockTTL})
			importer := fetcher.NewClient(cfg.UserAgent, cfg.Timeout)
			svc := service.NewSessions(rec, provider, sessions, importer)

			if rds != nil {
				go service.RunEventWorker(ctx, rds, rec)
			}

			return server.New(rec, svc, cfg).ListenAndServe(ctx)
		},
	}

	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep saved trees in memory instead of PostgreSQL")
	cmd.Flags().StringVar(&defaultsFile, "defaults", "", "YAML file replacing the built-in default trees")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides SERVER_PORT)")
	return cmd
}

// loadDefaults returns the built-in default trees, or those in path when set.
func loadDefaults(path string) (*defaults.Provider, error) {
	if path == "" {
		p, err := defaults.Load()
		if err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	p, err := defaults.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("defaults %s: %w", path, err)
	}
	return p, nil
}
