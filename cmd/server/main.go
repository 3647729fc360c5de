package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeflowlabs/nodeflow/internal/api"
	"github.com/nodeflowlabs/nodeflow/internal/config"
	"github.com/nodeflowlabs/nodeflow/internal/nodes"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/session"
	"github.com/nodeflowlabs/nodeflow/internal/store"
	"github.com/nodeflowlabs/nodeflow/internal/store/postgres"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "", "Path to server YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	var (
		loader *config.Loader
		cfg    *config.Config
	)
	if *cfgPath != "" {
		var err error
		loader, err = config.NewLoader(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loader.Config()
	} else {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// ── Node type registry ────────────────────────────────────────────────────
	reg := registry.New()
	nodes.Register(reg)
	slog.Info("node registry ready", "types", len(reg.Tags()))

	// ── Document store ────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := postgres.New(pool)
		if err := pg.CreateSchema(ctx); err != nil {
			slog.Error("failed to create schema", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("document store ready", "backend", "postgres")
	default:
		st = store.NewMemory()
		slog.Info("document store ready", "backend", "memory")
	}

	mgr := session.NewManager(reg, st, cfg)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(newCfg *config.Config) {
			if err := config.Validate(newCfg); err != nil {
				slog.Warn("hot-reload skipped: config invalid", "err", err)
				return
			}
			mgr.SetConfig(newCfg)
			slog.Info("config hot-reloaded")
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(mgr, reg, loader)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye")
}
