package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countbot/internal/adapter/discord"
	"github.com/pscheid92/countbot/internal/adapter/httpserver"
	"github.com/pscheid92/countbot/internal/adapter/metrics"
	"github.com/pscheid92/countbot/internal/adapter/postgres"
	"github.com/pscheid92/countbot/internal/adapter/redis"
	"github.com/pscheid92/countbot/internal/app"
	"github.com/pscheid92/countbot/internal/platform/config"
	"github.com/pscheid92/countbot/internal/platform/logging"
	"github.com/pscheid92/countbot/internal/platform/retry"
	"github.com/pscheid92/countbot/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, m.Storage)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	m.Storage.WatchPool(pool)
	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *goredis.Client {
	breaker := redis.NewCircuitBreakerHook(redis.DefaultCircuitBreakerConfig(), m.Breakers)
	client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewMetricsHook(m.Storage), breaker)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupSession(cfg *config.Config) *discordgo.Session {
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}
	return session
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	pool := setupDB(ctx, cfg, m)
	defer pool.Close()

	redisClient := setupRedis(ctx, cfg, m)
	defer func() { _ = redisClient.Close() }()

	session := setupSession(cfg)
	client := discord.NewClient(session, m.Breakers)

	status := app.NewStatusReporter(clock, cfg.LocalTimezoneOffset)

	dispatcher := app.NewDispatcher(client, app.LogChannels{
		Pings:     cfg.PingChannelID,
		CountLog:  cfg.CountLogChannelID,
		Deletions: cfg.LoggingChannelID,
		Reactions: cfg.ReactionChannelID,
	}, clock)
	dispatcher.Observe(m.Notifications)

	accounts := postgres.NewAccountRepo(pool)
	stateRepo := postgres.NewStateRepo(pool)

	game := app.NewCountingGame(postgres.NewGameRepo(pool), accounts, client, client, dispatcher, clock, app.CountingConfig{
		Rules:            cfg.CountingRules(),
		BadCounterRoleID: cfg.BadCounterRoleID,
	})
	game.Observe(m.Counting)
	game.RecordErrorsTo(status)

	loadCtx, cancelLoad := context.WithTimeout(ctx, startupTimeout)
	if err := game.Load(loadCtx); err != nil {
		cancelLoad()
		slog.Error("Failed to load counting state", "error", err)
		os.Exit(1)
	}
	cancelLoad()
	m.Counting.SetState(game.State())

	pings := app.NewPingDetector(cfg.PingLimit, cfg.PingWindow(), clock, dispatcher)
	pings.Observe(m.Counting)

	audit := app.NewAuditLog(redis.NewMediaCache(redisClient), discord.NewFetcher(nil, retry.DownloadPolicy), dispatcher)
	router := app.NewMessageRouter(audit, game, pings)
	boosters := app.NewBoosterSync(client, client, cfg.BoosterRoleID, cfg.MutedRoleID)

	decay := app.NewDecayJob(game, cfg.CountingRules().DecayAfter, clock)
	decay.Observe(m.Counting)
	decay.RecordErrorsTo(status)

	countdown := app.NewCountdownTicker(client, stateRepo, cfg.CountdownChannelID, cfg.CountdownTitle, cfg.CountdownTarget, clock)

	gateway := discord.NewGateway(discord.Handlers{
		Messages: router,
		Audit:    audit,
		Members:  boosters,
		Identity: dispatcher,
		Commands: discord.NewCommands(game, boosters, status, clock, cfg.BoosterRoleID),
		Errors:   status,
	}, cfg.GuildID)
	gateway.Register(session)

	if err := session.Open(); err != nil {
		slog.Error("Failed to open Discord gateway", "error", err)
		os.Exit(1)
	}

	srv := httpserver.NewServer(httpserver.Options{
		Port: cfg.Port,
		HealthChecks: []httpserver.HealthCheck{
			{Name: "postgres", Check: pool.Ping},
			{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "discord", Check: func(context.Context) error {
				if !gateway.Connected() {
					return errors.New("gateway not connected")
				}
				return nil
			}},
		},
		Status:     status,
		Metrics:    metrics.Handler(m.Registry),
		Middleware: []echo.MiddlewareFunc{m.HTTP.Middleware()},
		Clock:      clock,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		decay.Run(gctx)
		return nil
	})
	g.Go(func() error {
		countdown.Run(gctx)
		return nil
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if closeErr := session.Close(); closeErr != nil {
		slog.Error("Failed to close Discord gateway", "error", closeErr)
	}
	router.Wait()

	if err != nil {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot stopped")
}
