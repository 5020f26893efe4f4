package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Addis4/kt-ai/internal/answer"
	"github.com/Addis4/kt-ai/internal/config"
	"github.com/Addis4/kt-ai/internal/directory"
	"github.com/Addis4/kt-ai/internal/docgen"
	"github.com/Addis4/kt-ai/internal/explore"
	"github.com/Addis4/kt-ai/internal/health"
	"github.com/Addis4/kt-ai/internal/metrics"
	"github.com/Addis4/kt-ai/internal/notify"
	"github.com/Addis4/kt-ai/internal/server"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("answer_base_url", cfg.AnswerBaseURL).
		Str("directory_mode", cfg.DirectoryMode).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting kt-ai")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	metricsCollector := metrics.New()
	checker := health.NewChecker(logger)

	// Upstream clients
	answerClient := answer.NewClient(cfg.AnswerBaseURL, logger)
	answerClient.SetMetrics(metricsCollector)
	checker.Register("answer", func(ctx context.Context) health.Status {
		if err := answerClient.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	docClient := docgen.NewClient(cfg.DocgenURL(), logger)
	docClient.SetMetrics(metricsCollector)

	// Repository directory backend
	var lister directory.Lister
	if strings.EqualFold(cfg.DirectoryMode, "github") {
		lister = directory.NewGitHubLister(cfg.GitHubToken, logger)
		logger.Info().Msg("repository directory backed by the GitHub API")
	} else {
		proxy := directory.NewClient(cfg.DirectoryURL(), logger)
		proxy.SetMetrics(metricsCollector)
		checker.Register("directory", func(ctx context.Context) health.Status {
			if err := proxy.Ping(ctx); err != nil {
				return health.StatusDegraded
			}
			return health.StatusOK
		})
		lister = proxy
	}

	cache := directory.NewCache(lister, logger)
	cache.SetMetrics(metricsCollector)

	// Optional Slack completion notices
	var storeOpts []explore.Option
	if cfg.SlackEnabled() {
		notifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger)
		storeOpts = append(storeOpts, explore.WithListener(notifier))
		logger.Info().Str("channel", cfg.SlackChannel).Msg("Slack notifications enabled")
	}

	// Session store with idle expiry
	store := explore.NewSessionStore(answerClient, docClient, cfg.SessionTTL, logger, storeOpts...)
	store.SetMetrics(metricsCollector)

	stopCleanup := make(chan struct{})
	store.StartCleanup(cfg.SessionCleanupInterval, stopCleanup)

	// Optional context presets
	var presets *config.Presets
	if cfg.PresetsPath != "" {
		presets, err = config.LoadPresets(cfg.PresetsPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.PresetsPath).Msg("failed to load presets")
		}
		logger.Info().Int("contexts", len(presets.Contexts)).Msg("context presets loaded")
	}

	handlers := server.NewHandlers(store, cache, checker, presets, logger)
	srv := server.NewServer(server.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: server.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: server.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, metricsCollector, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-errCh:
		logger.Error().Err(err).Msg("API server error")
	}

	close(stopCleanup)
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	logger.Info().Msg("kt-ai stopped")
}
