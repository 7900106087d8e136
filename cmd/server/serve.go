package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/ai"
	"github.com/Skotchmaster/baseball_stats/internal/config"
	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/httpserver"
	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	"github.com/Skotchmaster/baseball_stats/internal/jobs"
	"github.com/Skotchmaster/baseball_stats/internal/middleware"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/internal/search"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/internal/validation"
	"github.com/Skotchmaster/baseball_stats/pkg/db"
	"github.com/Skotchmaster/baseball_stats/pkg/hash"
	loggingmw "github.com/Skotchmaster/baseball_stats/pkg/middleware/logging"
	"github.com/Skotchmaster/baseball_stats/pkg/tokens"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

type backends struct {
	db        *gorm.DB
	publisher events.Publisher
	redis     *redis.Client
	runner    *jobs.Runner
}

func (b *backends) close(logger *slog.Logger) {
	if err := b.publisher.Close(); err != nil {
		logger.Warn("publisher_close_failed", "error", err)
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			logger.Warn("redis_close_failed", "error", err)
		}
	}
	if err := db.Close(b.db); err != nil {
		logger.Warn("db_close_failed", "error", err)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gdb, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	b := &backends{db: gdb, publisher: newPublisher(cfg, logger)}

	e, err := buildServer(ctx, cfg, logger, b)
	if err != nil {
		b.close(logger)
		return err
	}

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started", "addr", cfg.Addr(), "app", cfg.AppName)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	case runErr = <-errCh:
		logger.Error("server_failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server_shutdown_failed", "error", err)
	}

	done := make(chan struct{})
	go func() {
		b.runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("import_jobs_abandoned", "reason", "shutdown timeout")
	}

	b.close(logger)
	logger.Info("server_stopped")
	return runErr
}

func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backends) (*echo.Echo, error) {
	r := &repo.GormRepo{DB: b.db}
	v := validation.New()

	codec, err := tokens.NewCodec([]byte(cfg.SecretKey), cfg.JWTAlgorithm, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}

	aliases, err := ingest.LoadAliases(cfg.IngestAliasesFile)
	if err != nil {
		logger.Error("aliases_load_failed", "path", cfg.IngestAliasesFile, "error", err)
		return nil, err
	}
	norm, err := ingest.NewNormalizer(aliases)
	if err != nil {
		return nil, err
	}

	store, err := newJobStore(ctx, cfg, logger, b)
	if err != nil {
		return nil, err
	}
	b.runner = jobs.NewRunner(store)

	authSvc := &service.AuthService{
		Repo:      r,
		Tokens:    codec,
		Validator: v,
		Events:    b.publisher,
		Hasher:    hash.Hasher{Cost: cfg.BcryptCost},
	}
	playerSvc := &service.PlayerService{Repo: r, Validator: v, Events: b.publisher}
	if idx := newSearchIndex(ctx, cfg, logger); idx != nil {
		playerSvc.Index = idx
	}
	descSvc := &service.DescriptionService{Repo: r}
	if cfg.OpenAIKey != "" {
		descSvc.Generator = ai.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		logger.Info("ai_disabled", "reason", "OPENAI_API_KEY not set")
	}
	importSvc := &service.ImportService{
		Pipeline: &ingest.Pipeline{Normalizer: norm, Sink: playerSvc, Events: b.publisher},
		Fetcher:  ingest.NewFetcher(cfg.IngestTimeout),
		Jobs:     b.runner,
		FeedURL:  cfg.IngestAPIURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.Debug
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(corsConfig(cfg)))
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AppName: cfg.AppName,
		Guard:   &middleware.SessionGuard{Auth: authSvc},
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Players: &httpserver.PlayerHTTP{Svc: playerSvc},
		Imports: &httpserver.ImportHTTP{Svc: importSvc},
		AI:      &httpserver.AIHTTP{Svc: descSvc},
		Ready:   func(ctx context.Context) error { return db.Ping(ctx, b.db) },
	})
	return e, nil
}

// corsConfig allows the Authorization header but no credentials: sessions
// travel as bearer tokens, never cookies.
func corsConfig(cfg *config.Config) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS not set")
		return events.Nop{}
	}
	logger.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	return events.NewProducer(cfg.KafkaBrokers)
}

// newJobStore prefers redis so job status survives restarts and is shared
// between replicas. Without REDIS_ADDR jobs live in process memory.
func newJobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backends) (jobs.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("job_store", "backend", "memory")
		return jobs.NewMemoryStore(jobs.DefaultTTL), nil
	}
	client, err := jobs.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("redis_connect_failed", "addr", cfg.RedisAddr, "error", err)
		return nil, err
	}
	b.redis = client
	logger.Info("job_store", "backend", "redis", "addr", cfg.RedisAddr)
	return jobs.NewRedisStore(client, jobs.DefaultTTL), nil
}

// newSearchIndex returns nil when search is not configured or unreachable;
// the search endpoint then answers 503.
func newSearchIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) *search.Index {
	if cfg.ESURL == "" {
		logger.Info("search_disabled", "reason", "ES_URL not set")
		return nil
	}
	client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		return nil
	}
	idx := &search.Index{ES: client, Name: cfg.ESIndex}
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("search_disabled", "reason", "cannot create index", "error", err)
		return nil
	}
	return idx
}
