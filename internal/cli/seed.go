package cli

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/config"
	"trivia-live-service/internal/infra/memory"
	"trivia-live-service/internal/infra/postgres"
	"trivia-live-service/internal/logger"
)

// NewSeedCmd stores the built-in sample banks in Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample question banks into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
			return seedBanks(cmd.Context(), cfg)
		},
	}
}

func seedBanks(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return errNoPostgres
	}
	if err := runMigrations(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := postgres.NewBankLoader(pool)
	banks := memory.SampleBanks()
	categories := lo.Keys(banks)
	sort.Strings(categories)
	for _, category := range categories {
		valid, rejected := app.ValidateBatch(banks[category])
		if err := loader.SaveBank(ctx, category, valid); err != nil {
			return err
		}
		log.Info().Str("category", category).Int("questions", len(valid)).Int("rejected", rejected).Msg("bank seeded")
	}
	return nil
}
