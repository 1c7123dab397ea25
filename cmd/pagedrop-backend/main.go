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

	"github.com/use-agent/pagedrop/api"
	"github.com/use-agent/pagedrop/cache"
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/extract"
	"github.com/use-agent/pagedrop/llm"
	"github.com/use-agent/pagedrop/process"
	"github.com/use-agent/pagedrop/store"
	"github.com/use-agent/pagedrop/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("pagedrop backend starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"profile", cfg.Extract.Profile,
	)

	// ── 3. Extraction profiles ──────────────────────────────────────
	ex, err := newExtractor(cfg)
	if err != nil {
		slog.Error("failed to initialise extractor", "error", err)
		os.Exit(1)
	}

	// ── 4. Pipeline stages ──────────────────────────────────────────
	opts := process.Options{Cache: cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)}
	defer opts.Cache.Close()

	if cfg.Store.SheetPath != "" {
		sheet, err := store.OpenSheet(cfg.Store.SheetPath, cfg.Store.PriceMultiplier, cfg.Store.DefaultRating)
		if err != nil {
			slog.Error("failed to open product sheet", "path", cfg.Store.SheetPath, "error", err)
			os.Exit(1)
		}
		defer sheet.Close()
		opts.Sheet = sheet
		slog.Info("product sheet ready", "path", cfg.Store.SheetPath)
	}
	if cfg.Store.BucketDir != "" {
		bucket, err := store.NewBucket(cfg.Store.BucketDir, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			slog.Error("failed to open image bucket", "dir", cfg.Store.BucketDir, "error", err)
			os.Exit(1)
		}
		opts.Bucket = bucket
		slog.Info("image bucket ready", "dir", cfg.Store.BucketDir)
	}
	var notifier *webhook.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret)
		opts.Webhook = notifier
		slog.Info("webhook enabled", "url", cfg.Webhook.URL, "signed", cfg.Webhook.Secret != "")
	}

	proc := process.New(ex, opts)

	// ── 5. Router and HTTP server ───────────────────────────────────
	router := api.NewRouter(proc, cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr, "profiles", proc.Profiles())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	if notifier != nil {
		notifier.Wait()
	}
	slog.Info("pagedrop backend stopped")
}

// newExtractor registers the product and page profiles, plus the llm
// profile when an API key is configured.
func newExtractor(cfg *config.Config) (*extract.Extractor, error) {
	prod, err := extract.NewProductProfile(extract.Selectors{
		Title:       cfg.Extract.TitleSelector,
		Price:       cfg.Extract.PriceSelector,
		Image:       cfg.Extract.ImageSelector,
		Description: cfg.Extract.DescriptionSelector,
	})
	if err != nil {
		return nil, err
	}
	profiles := []extract.Profile{prod, extract.NewPageProfile()}
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(&http.Client{Timeout: cfg.LLM.Timeout}, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
		profiles = append(profiles, extract.NewLLMProfile(client))
		slog.Info("llm profile enabled", "model", client.Model(), "base_url", cfg.LLM.BaseURL)
	}
	return extract.New(cfg.Extract.Profile, profiles...)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
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
