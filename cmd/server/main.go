package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/courseforge/site/internal/ai"
	"github.com/courseforge/site/internal/api"
	"github.com/courseforge/site/internal/leadgen"
	"github.com/courseforge/site/internal/notify"
	"github.com/courseforge/site/internal/platform/cache"
	"github.com/courseforge/site/internal/platform/config"
	"github.com/courseforge/site/internal/platform/database"
	"github.com/courseforge/site/internal/prompt"
)

func main() {
	// Deployed environments set COURSEFORGE_ENV; .env is for local runs.
	if os.Getenv("COURSEFORGE_ENV") == "" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	handler, cleanup, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// build wires the application. The returned cleanup closes every connection
// build opened.
func build(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	router := newRouter(cfg.AI)
	if !router.HasProvider() {
		return fail(fmt.Errorf("no AI provider configured"))
	}

	prompts, err := loadPrompts(cfg.PromptsPath)
	if err != nil {
		return fail(err)
	}

	apiOpts := []api.Option{
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithTrustedProxies(cfg.Server.TrustedProxies),
	}
	var svcOpts []leadgen.Option

	var store leadgen.Store = leadgen.NewMemoryStore()
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)

		pg, err := leadgen.NewPostgresStore(db.Pool)
		if err != nil {
			return fail(err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return fail(fmt.Errorf("ensuring schema: %w", err))
		}
		store = pg
		apiOpts = append(apiOpts, api.WithHealthCheck("database", db.HealthCheck))
		slog.Info("using postgres store")
	} else {
		slog.Warn("COURSEFORGE_DATABASE_URL not set, submissions are kept in memory")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = c.Close() })

		svcOpts = append(svcOpts,
			leadgen.WithQuota(ai.NewRedisQuota(c.Client, cfg.Quota.Limit, cfg.Quota.Window)),
			leadgen.WithResponseCache(c, cfg.Cache.ResponseTTL),
		)
		apiOpts = append(apiOpts, api.WithHealthCheck("cache", c.HealthCheck))
	} else {
		svcOpts = append(svcOpts, leadgen.WithQuota(ai.NewInMemoryQuota(cfg.Quota.Limit, cfg.Quota.Window)))
	}

	if cfg.Telegram.Enabled() {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return fail(err)
		}
		svcOpts = append(svcOpts, leadgen.WithNotifier(n))
	}

	svc := leadgen.NewService(router, prompts, store, svcOpts...)
	srv, err := api.New(svc, apiOpts...)
	if err != nil {
		return fail(err)
	}
	return srv.Handler(), cleanup, nil
}

// newRouter registers every configured provider. Anthropic is tried first.
func newRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()

	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, ai.WithAnthropicModel(cfg.Anthropic.Model))
		if err != nil {
			slog.Warn("skipping anthropic provider", "error", err)
		} else {
			router.Register("anthropic", p)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, ai.WithDefaultModel(cfg.OpenAI.Model)))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey, ai.WithDefaultModel(cfg.DeepSeek.Model)))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey, cfg.OpenRouter.SiteURL,
			ai.WithDefaultModel(cfg.OpenRouter.Model)))
	}

	slog.Info("AI providers registered", "providers", router.Names())
	return router
}

func loadPrompts(path string) (*prompt.Library, error) {
	if path == "" {
		return prompt.Defaults()
	}
	lib, err := prompt.NewLibrary(os.DirFS(path))
	if err != nil {
		return nil, err
	}
	for _, id := range []string{prompt.CurriculumID, prompt.SEOID} {
		if _, ok := lib.Get(id); !ok {
			return nil, fmt.Errorf("prompt %q missing from %s", id, path)
		}
	}
	return lib, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
