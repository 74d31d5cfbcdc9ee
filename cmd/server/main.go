package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
	"github.com/aves-lingo/aves-engine/internal/api"
	"github.com/aves-lingo/aves-engine/internal/platform/cache"
	"github.com/aves-lingo/aves-engine/internal/platform/config"
	"github.com/aves-lingo/aves-engine/internal/platform/database"
	"github.com/aves-lingo/aves-engine/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := buildPool(cfg.Content)
	if err != nil {
		slog.Error("failed to load annotation content", "error", err)
		os.Exit(1)
	}

	checkers := make(map[string]api.HealthChecker)

	var store session.Store
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checkers["database"] = db

		pgStore, err := session.NewPostgresStore(db.Pool)
		if err != nil {
			slog.Error("failed to create store", "error", err)
			os.Exit(1)
		}
		if err := pgStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
		store = pgStore
	} else {
		slog.Info("no database configured, using in-memory store")
		store = session.NewMemoryStore()
	}

	var exerciseCache *session.ExerciseCache
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		checkers["cache"] = c
		exerciseCache = session.NewExerciseCache(c.Client,
			time.Duration(cfg.Cache.ExerciseTTLMinutes)*time.Minute)
	}

	engine, err := session.NewEngine(session.EngineConfig{
		Pool:  pool,
		Store: store,
		Cache: exerciseCache,
		Seed:  cfg.Engine.Seed,
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(engine, checkers).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "annotations", pool.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// buildPool loads annotations from every configured content source.
func buildPool(cfg config.ContentConfig) (*annotation.Pool, error) {
	var annotations []annotation.Annotation

	if cfg.Dir != "" {
		loaded, err := annotation.LoadDir(cfg.Dir)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, loaded...)
	}

	if cfg.Workbook != "" {
		imported, err := annotation.ImportWorkbook(cfg.Workbook)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, imported...)
	}

	return annotation.NewPool(annotations)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
