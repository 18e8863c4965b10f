package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/HutchE92/handover/internal/config"
	"github.com/HutchE92/handover/internal/domain/board"
	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/domain/patient"
	"github.com/HutchE92/handover/internal/platform/archive"
	"github.com/HutchE92/handover/internal/platform/auth"
	"github.com/HutchE92/handover/internal/platform/db"
	"github.com/HutchE92/handover/internal/platform/events"
	"github.com/HutchE92/handover/internal/platform/kv"
	"github.com/HutchE92/handover/internal/platform/metrics"
	"github.com/HutchE92/handover/internal/platform/middleware"
	"github.com/HutchE92/handover/internal/platform/sandbox"
	"github.com/HutchE92/handover/migrations"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// backend holds the repositories of one storage mode.
type backend struct {
	patients patient.Repository
	notes    handover.Repository
	entries  outofhours.Repository
	tx       patient.Transactor
	health   echo.HandlerFunc
	// Exactly one of pool and store is set.
	pool  *pgxpool.Pool
	store *kv.Store
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := kv.NewClient(ctx, kv.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return newRedisBackend(client, cfg.RedisKeyPrefix), nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &backend{
			patients: patient.NewRepoPG(pool),
			notes:    handover.NewRepoPG(pool),
			entries:  outofhours.NewRepoPG(pool),
			tx:       db.NewTransactor(pool),
			health:   db.HealthHandler(pool),
			pool:     pool,
			close:    pool.Close,
		}, nil
	}
}

func newRedisBackend(client *redis.Client, prefix string) *backend {
	store := kv.NewStore(client, prefix)
	return &backend{
		patients: patient.NewRepoRedis(store),
		notes:    handover.NewRepoRedis(store),
		entries:  outofhours.NewRepoRedis(store),
		health:   kv.HealthHandler(client),
		store:    store,
		close:    func() { client.Close() },
	}
}

// services is the wired domain layer shared by the server and the CLI.
type services struct {
	patients *patient.Service
	notes    *handover.Service
	entries  *outofhours.Service
	board    *board.Service
	pub      events.Publisher
}

func (s *services) close() {
	s.pub.Close()
}

func newServices(ctx context.Context, cfg *config.Config, b *backend) (*services, error) {
	var pub events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, *zerolog.Ctx(ctx))
	}

	patientSvc := patient.NewService(b.patients)
	patientSvc.SetPublisher(pub)
	patientSvc.SetCascade(b.tx, b.notes, b.entries)

	noteSvc := handover.NewService(b.notes)
	noteSvc.SetPatientLookup(patientSvc)
	noteSvc.SetPublisher(pub)

	entrySvc := outofhours.NewService(b.entries)
	entrySvc.SetPatientLookup(patientSvc)
	entrySvc.SetPublisher(pub)

	boardSvc := board.NewService(patientSvc, noteSvc, entrySvc)
	if cfg.ArchiveEnabled() {
		uploader, err := archive.NewS3Uploader(ctx, cfg.ArchiveS3Bucket, cfg.ArchiveEndpoint)
		if err != nil {
			pub.Close()
			return nil, err
		}
		boardSvc.SetArchiver(uploader)
	}

	return &services{
		patients: patientSvc,
		notes:    noteSvc,
		entries:  entrySvc,
		board:    boardSvc,
		pub:      pub,
	}, nil
}

func newRouter(cfg *config.Config, logger zerolog.Logger, b *backend, svcs *services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(metrics.Middleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/store", b.health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	authMW := auth.DevAuthMiddleware()
	if !cfg.IsDev() {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}

	auditRecorder := middleware.AuditRecorderFunc(func(middleware.AuditEntry) error {
		metrics.RecordAuditEntry()
		return nil
	})

	api := e.Group("/api/v1",
		middleware.BodyLimit(cfg.BodyLimit),
		middleware.RateLimit(rateLimitCfg),
		middleware.RequestTimeout(cfg.RequestTimeout),
		authMW,
		middleware.Audit(logger, auditRecorder),
	)

	patient.NewHandler(svcs.patients).RegisterRoutes(api)
	handover.NewHandler(svcs.notes).RegisterRoutes(api)
	outofhours.NewHandler(svcs.entries).RegisterRoutes(api)
	board.NewHandler(svcs.board).RegisterRoutes(api)
	if b.store != nil {
		sandbox.NewSeedHandler(newSeeder(b.store)).RegisterRoutes(api)
	}

	return e
}

func newSeeder(store *kv.Store) *sandbox.Seeder {
	return sandbox.NewSeeder(store, sandbox.DefaultSeedConfig())
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := logger.WithContext(context.Background())

	b, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage")
	}
	defer b.close()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("connected to storage")

	if err := prepareStorage(ctx, cfg, b); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	svcs, err := newServices(ctx, cfg, b)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire services")
	}
	defer svcs.close()

	e := newRouter(cfg, logger, b, svcs)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// prepareStorage migrates the relational schema, or seeds the key-value
// store on its first run.
func prepareStorage(ctx context.Context, cfg *config.Config, b *backend) error {
	log := zerolog.Ctx(ctx)
	if b.pool != nil {
		n, err := db.NewMigrator(b.pool, migrations.FS).Up(ctx, cfg.DBSchema)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Info().Int("applied", n).Msg("schema up to date")
		return nil
	}

	if !cfg.SeedDemoData {
		return nil
	}
	_, err := newSeeder(b.store).Seed(ctx, false)
	return err
}
