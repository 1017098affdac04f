// Command guildgrid runs the team town server: the Kanban task engine, the
// building grid, and the reward economy behind one HTTP API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/talgya/guildgrid/internal/api"
	"github.com/talgya/guildgrid/internal/config"
	"github.com/talgya/guildgrid/internal/engine"
	"github.com/talgya/guildgrid/internal/insight"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("GuildGrid - team town server")

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	svc := engine.New(st, logger, cfg.TerrainSeed)

	// ── Roster seed ───────────────────────────────────────────────────
	ctx := context.Background()
	if _, err := os.Stat(cfg.SeedPath); err == nil {
		seed, err := roster.LoadSeed(cfg.SeedPath)
		if err != nil {
			slog.Error("failed to load roster seed", "path", cfg.SeedPath, "error", err)
			os.Exit(1)
		}
		if err := svc.SeedRoster(ctx, seed); err != nil {
			slog.Error("failed to seed roster", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no roster seed file, starting with existing players only", "path", cfg.SeedPath)
	}

	// ── Insight client ────────────────────────────────────────────────
	insightClient := insight.NewClient(cfg.AnthropicKey)
	if insightClient != nil {
		slog.Info("insight client enabled")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set - insight endpoints will use heuristic fallbacks")
	}

	if cfg.AdminKey == "" {
		slog.Warn("GUILDGRID_ADMIN_KEY not set - supervisor endpoints will be disabled")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Service:     svc,
		Insight:     insightClient,
		Port:        cfg.Port,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
	}
	apiServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
