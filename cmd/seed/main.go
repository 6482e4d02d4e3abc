// Command seed loads a YAML roster into the auction database.
//
//	seed -file roster.yaml           # load into APP_DATABASE_URL
//	seed -file roster.yaml -dry-run  # validate only
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmx/auction-engine/internal/config"
	"github.com/atmx/auction-engine/internal/logger"
	"github.com/atmx/auction-engine/internal/seed"
	"github.com/atmx/auction-engine/internal/store"
)

func main() {
	file := flag.String("file", "roster.yaml", "path to the YAML roster")
	dryRun := flag.Bool("dry-run", false, "validate the roster without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	roster, err := seed.ReadFile(*file)
	if err != nil {
		log.Error("reading roster failed", "file", *file, "err", err)
		os.Exit(1)
	}
	if err := roster.Validate(); err != nil {
		log.Error("roster is invalid", "file", *file, "err", err)
		os.Exit(1)
	}
	if *dryRun {
		log.Info("roster is valid",
			"teams", len(roster.Teams),
			"pools", len(roster.Pools),
			"unpooled_players", len(roster.Players),
		)
		return
	}

	if cfg.Database.URL == "" {
		log.Error("APP_DATABASE_URL is required unless -dry-run is set")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	res, err := seed.Load(ctx, pg, roster)
	if err != nil {
		log.Error("seeding stopped", "err", err, "teams", res.Teams, "pools", res.Pools, "players", res.Players)
		os.Exit(1)
	}
	log.Info("roster loaded", "teams", res.Teams, "pools", res.Pools, "players", res.Players)
}
