// Command frasero serves the Spanish phrase matching API: fuzzy-corrected,
// embedding-based phrase search with a character-by-character spell-out
// fallback for proper nouns.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JMJuarez/modulo-pln-vf/internal/config"
	"github.com/JMJuarez/modulo-pln-vf/internal/health"
	"github.com/JMJuarez/modulo-pln-vf/internal/inventory"
	"github.com/JMJuarez/modulo-pln-vf/internal/matcher"
	"github.com/JMJuarez/modulo-pln-vf/internal/observe"
	"github.com/JMJuarez/modulo-pln-vf/internal/server"
	"github.com/JMJuarez/modulo-pln-vf/internal/vectorcache"
	vcpostgres "github.com/JMJuarez/modulo-pln-vf/internal/vectorcache/postgres"
	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings"
	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings/ollama"
	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings/openai"
)

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsHandler, shutdownMetrics, err := observe.Init("frasero", version)
	if err != nil {
		log.Error("metrics init failed", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			log.Warn("metrics shutdown failed", slog.String("error", err.Error()))
		}
	}()

	registry := config.NewRegistry()
	registry.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		apiKey := os.Getenv(entry.APIKeyEnv)
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(apiKey, entry.Model, opts...)
	})
	registry.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []ollama.Option
		if entry.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(entry.BaseURL))
		}
		return ollama.New(entry.Model, entry.Dimensions, opts...)
	})

	provider, err := registry.Embeddings(cfg.Providers.Embeddings)
	if err != nil {
		log.Error("embeddings provider init failed", slog.String("error", err.Error()))
		return 1
	}

	inv, err := loadInventory(cfg.Inventory.Path)
	if err != nil {
		log.Error("inventory load failed", slog.String("error", err.Error()))
		return 1
	}
	log.Info("inventory loaded",
		slog.Int("groups", len(inv.Groups())),
		slog.Int("phrases", inv.TotalPhrases()),
		slog.String("hash", inv.Hash()))

	store, closeStore, err := openStore(ctx, cfg.Cache, provider.Dimensions())
	if err != nil {
		log.Error("vector cache init failed", slog.String("error", err.Error()))
		return 1
	}
	defer closeStore()

	engineOpts := []matcher.Option{
		matcher.WithStore(store),
		matcher.WithLogger(log),
	}
	if cfg.Matcher.GroupTopK > 0 {
		engineOpts = append(engineOpts, matcher.WithGroupTopK(cfg.Matcher.GroupTopK))
	}
	if cfg.Matcher.CorrectionThreshold > 0 {
		engineOpts = append(engineOpts, matcher.WithCorrectionThreshold(cfg.Matcher.CorrectionThreshold))
	}
	engine := matcher.New(provider, inv, engineOpts...)

	log.Info("warming up", slog.String("model", provider.ModelID()))
	if err := engine.Warmup(ctx); err != nil {
		log.Error("warmup failed", slog.String("error", err.Error()))
		return 1
	}

	groupIDs := make([]string, 0, len(inv.Groups()))
	for _, g := range inv.Groups() {
		groupIDs = append(groupIDs, g.ID)
	}
	checkers := []health.Checker{
		{Name: "engine", Check: func(context.Context) error { return engine.Ready() }},
	}
	if pg, ok := store.(*vcpostgres.Store); ok {
		checkers = append(checkers, health.Checker{Name: "vector_cache", Check: pg.Ping})
	}
	healthHandler := health.New(
		health.Info{
			Model:        provider.ModelID(),
			TotalPhrases: inv.TotalPhrases(),
			Groups:       groupIDs,
		},
		checkers...,
	)

	srv := server.New(engine,
		server.WithLogger(log),
		server.WithHealth(healthHandler),
		server.WithMetrics(metricsHandler),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			log.Warn("graceful shutdown failed", slog.String("error", err.Error()))
			return 1
		}
	}
	return 0
}

// loadInventory reads the inventory at path, or the embedded default when
// path is empty.
func loadInventory(path string) (*inventory.Inventory, error) {
	if path == "" {
		return inventory.LoadDefault()
	}
	return inventory.Load(path)
}

// openStore picks the vector cache backend: shared PostgreSQL when a DSN is
// configured, a local file otherwise.
func openStore(ctx context.Context, cfg config.CacheConfig, dimensions int) (vectorcache.Store, func(), error) {
	if cfg.PostgresDSN != "" {
		pg, err := vcpostgres.New(ctx, cfg.PostgresDSN, dimensions)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	fs, err := vectorcache.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}
