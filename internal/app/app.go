package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/AccountsGo/internal/auth"
	"github.com/utafrali/AccountsGo/internal/config"
	"github.com/utafrali/AccountsGo/internal/event"
	handler "github.com/utafrali/AccountsGo/internal/handler/http"
	"github.com/utafrali/AccountsGo/internal/mail"
	"github.com/utafrali/AccountsGo/internal/repository/postgres"
	"github.com/utafrali/AccountsGo/internal/service"
	"github.com/utafrali/AccountsGo/internal/session"
	"github.com/utafrali/AccountsGo/migrations"
	"github.com/utafrali/AccountsGo/pkg/database"
	"github.com/utafrali/AccountsGo/pkg/health"
	pkgkafka "github.com/utafrali/AccountsGo/pkg/kafka"
	"github.com/utafrali/AccountsGo/pkg/tracing"
)

// App wires together all dependencies and runs the accounts service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "accounts",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "accounts")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Optional Redis-backed session revocation.
	var revoker session.Revoker = session.NewNoopRevoker()
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisCfg, err := redisConfigFromAddr(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			pool.Close()
			return nil, err
		}
		redisClient, err = database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		revoker = session.NewRedisRevoker(redisClient)
		logger.Info("session revocation enabled", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("session revocation disabled, tokens remain valid until expiry")
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Mailer: SMTP when configured, otherwise log-only delivery.
	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
	} else {
		mailer = mail.NewLogMailer(logger)
		logger.Warn("SMTP not configured, verification emails are logged only")
	}

	// Build the dependency graph. A missing signing secret is fatal here.
	if cfg.UsingDefaultJWTSecret() {
		logger.Warn("JWT_SECRET not set, signing tokens with the development placeholder; every token is forgeable")
	}
	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	accountRepo := postgres.NewAccountRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	accountService := service.NewAccountService(accountRepo, codec, mailer, eventProducer, revoker, logger, service.Config{
		SessionTTL:    cfg.SessionTTL,
		SignupCodeTTL: cfg.SignupCodeTTL,
		ResetCodeTTL:  cfg.ResetCodeTTL,
		VerifyBaseURL: cfg.VerifyBaseURL,
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(accountService, codec, healthHandler, logger, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

func redisConfigFromAddr(addr, password string, db int) (database.RedisConfig, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return database.RedisConfig{}, fmt.Errorf("parse redis address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return database.RedisConfig{}, fmt.Errorf("parse redis port %q: %w", portStr, err)
	}
	return database.RedisConfig{Host: host, Port: port, Password: password, DB: db}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
