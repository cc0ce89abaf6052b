package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/config"
	"trivia-live-service/internal/infra/gemini"
	"trivia-live-service/internal/infra/memory"
	"trivia-live-service/internal/infra/postgres"
	redisinfra "trivia-live-service/internal/infra/redis"
	"trivia-live-service/internal/logger"
	transport "trivia-live-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var rooms app.RoomStore = memory.NewRoomStore()
	var loader memory.BankLoader = memory.NewStaticBankLoader(memory.SampleBanks())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewBankLoader(pool)

		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()
		rooms = postgres.NewRoomStore(db)
	}

	bankTTL := config.TTLDuration(cfg.Questions.BankTTL, 10*time.Minute)
	var bank app.QuestionSource
	var sessions app.SessionRegistry
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, bankTTL)
		store := redisinfra.NewSessionStore(redisClient, redisTTL)
		go refreshSessions(ctx, store, redisTTL/2)
		sessions = store
	} else {
		bank = memory.NewQuestionBank(loader, bankTTL)
		sessions = memory.NewSessionStore()
	}

	var questions app.FallbackSource
	if g := cfg.Questions.Gemini; g.APIKey != "" {
		questions = append(questions, gemini.NewQuestionSource(gemini.Config{
			APIKey:  g.APIKey,
			Model:   g.Model,
			BaseURL: g.BaseURL,
			Timeout: config.TTLDuration(g.Timeout, 30*time.Second),
		}))
	} else {
		log.Info().Msg("no Gemini API key configured, serving questions from the bank only")
	}
	questions = append(questions, bank)

	hub := transport.NewHub(64)
	service := app.NewGameService(rooms, sessions, questions, hub,
		app.WithTimings(timingsFrom(cfg.Game)),
		app.WithQuestionLimits(limitsFrom(cfg.Game)),
	)
	ws := transport.NewWSHandler(service, hub, transport.WSOptions{
		MessagesPerSecond: cfg.Server.MessagesPerSecond,
		Burst:             cfg.Server.Burst,
	})
	api := transport.NewAPIHandler(service, transport.Catalog{
		Avatars:    cfg.Catalog.Avatars,
		Categories: cfg.Catalog.Categories,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(ws, api),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", finalPort).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// refreshSessions keeps the liveness keys of open rooms from expiring.
func refreshSessions(ctx context.Context, store *redisinfra.SessionStore, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("refresh session keys")
			}
		}
	}
}

func timingsFrom(g config.Game) app.Timings {
	t := app.DefaultTimings()
	t.QuestionTimeout = config.TTLDuration(g.QuestionTimeout, t.QuestionTimeout)
	t.RevealDelay = config.TTLDuration(g.RevealDelay, t.RevealDelay)
	t.AnnounceDelay = config.TTLDuration(g.AnnounceDelay, t.AnnounceDelay)
	t.SkipDelay = config.TTLDuration(g.SkipDelay, t.SkipDelay)
	t.FinishedTTL = config.TTLDuration(g.FinishedTTL, t.FinishedTTL)
	return t
}

func limitsFrom(g config.Game) app.QuestionLimits {
	l := app.DefaultQuestionLimits()
	if g.DefaultQuestions > 0 {
		l.Default = g.DefaultQuestions
	}
	if g.MinQuestions > 0 {
		l.Min = g.MinQuestions
	}
	if g.MaxQuestions > 0 {
		l.Max = g.MaxQuestions
	}
	if g.DefaultCategory != "" {
		l.Category = g.DefaultCategory
	}
	if g.DefaultDifficulty != "" {
		l.Difficulty = g.DefaultDifficulty
	}
	return l
}
