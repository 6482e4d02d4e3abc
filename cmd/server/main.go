package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/auction-engine/internal/api"
	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/config"
	"github.com/atmx/auction-engine/internal/events"
	"github.com/atmx/auction-engine/internal/increment"
	"github.com/atmx/auction-engine/internal/live"
	"github.com/atmx/auction-engine/internal/logger"
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/squad"
	"github.com/atmx/auction-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()
	health := map[string]api.HealthCheck{}

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if cfg.Database.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				log.Error("schema migration failed", "err", err)
				os.Exit(1)
			}
		}
		health["postgres"] = pg.Health
		st = pg
		log.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Redis.URL != "" {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				log.Error("invalid APP_REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			st = store.NewCachedStore(st, rdb, cfg.Redis.TTL)
			log.Info("Redis cache enabled", "ttl", cfg.Redis.TTL)
		}
	} else {
		log.Warn("APP_DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	// Runs after the server and notifiers have stopped.
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	// --- Notifiers ---
	engineLog := logger.WithComponent(log, "engine")
	var eng *auction.Engine

	hub := live.NewHub(
		live.WithLogger(logger.WithComponent(log, "live")),
		live.WithSnapshot(func(ctx context.Context) (*model.Session, error) {
			return eng.Current(ctx)
		}),
	)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	notifiers := auction.Fanout{hub}
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		ncfg := events.DefaultConfig()
		ncfg.URL = cfg.NATS.URL
		ncfg.StreamName = cfg.NATS.Stream
		ncfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		publisher, err = events.Connect(ctx, ncfg, logger.WithComponent(log, "events"))
		if err != nil {
			log.Error("nats connection failed", "err", err)
			os.Exit(1)
		}
		health["nats"] = func(context.Context) error { return publisher.Health() }
		notifiers = append(notifiers, publisher)
		log.Info("publishing auction events to JetStream", "stream", ncfg.StreamName)
	}

	// --- Auction engine ---
	limiter := squad.NewLimiter(cfg.Auction.MaxSquad, cfg.Auction.MaxOverseas, cfg.Auction.HomeCountry)
	eng = auction.NewEngine(st,
		auction.WithSquadLimiter(limiter),
		auction.WithNotifier(notifiers),
		auction.WithLogger(engineLog),
	)
	if err := eng.Recover(ctx); err != nil {
		log.Error("recovering auction state failed", "err", err)
		os.Exit(1)
	}

	steps := make([]money.Amount, 0, len(cfg.Auction.Increments))
	for _, s := range cfg.Auction.Increments {
		steps = append(steps, money.Amount(s))
	}
	menu, err := increment.NewMenu(steps...)
	if err != nil {
		log.Error("invalid increment menu", "err", err)
		os.Exit(1)
	}

	// --- HTTP server ---
	srv := api.NewServer(api.Deps{
		Engine:         eng,
		Store:          st,
		WS:             http.HandlerFunc(hub.HandleWS),
		Menu:           menu,
		BidRate:        cfg.Auction.BidRate,
		BidBurst:       cfg.Auction.BidBurst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         health,
		Logger:         logger.WithComponent(log, "api"),
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("auction-engine listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", "err", err)
	}

	// Graceful shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	log.Info("shutting down auction-engine...")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
	stopHub()
	if publisher != nil {
		if err := publisher.Close(shutdownCtx); err != nil {
			log.Error("nats drain failed", "err", err)
		}
	}
	log.Info("auction-engine stopped")
}
