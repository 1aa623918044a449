// main.go
//
// Entry point for the MysticGrid game server. Loads .env configuration,
// opens the finished-game archive, wires the manager and catalog, starts
// the cleanup sweeper, and serves HTTP.

package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mysticgrid/go-server/internal/catalog"
	"github.com/mysticgrid/go-server/internal/history"
	"github.com/mysticgrid/go-server/internal/httpserver"
	"github.com/mysticgrid/go-server/internal/manager"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := history.Open(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := history.Migrate(db, "sql"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	hist := history.NewStore(db)

	cfg := manager.DefaultConfig()
	if v := getEnvInt("MAX_TURNS", 0); v > 0 {
		cfg.MaxTurns = v
	}
	if v := getEnvInt("GAME_DURATION_SECONDS", 0); v > 0 {
		cfg.GameDuration = time.Duration(v) * time.Second
	}
	mgr := manager.New(cfg, hist, log.Logger)

	registry := catalog.NewRegistry()
	registry.Register(catalog.NewMysticGrid(mgr))

	go sweep(mgr)

	srv := httpserver.New(mgr, registry, hist)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting mysticgrid server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// sweep periodically archives finished sessions and drops stale lobbies
// and long-disconnected players.
func sweep(mgr *manager.Manager) {
	interval := time.Duration(getEnvInt("CLEANUP_INTERVAL_SECONDS", 300)) * time.Second
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		mgr.CleanupFinished(ctx)
		mgr.CleanupIdle()
		cancel()
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
