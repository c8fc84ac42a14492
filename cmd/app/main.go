// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain/ports/adapter"
	"ai-doppelganger/internal/domain/ports/repository"
	aiAdapters "ai-doppelganger/internal/infra/adapters/ai"
	mailAdapters "ai-doppelganger/internal/infra/adapters/mail"
	fileRepo "ai-doppelganger/internal/infra/db/file"
	pg "ai-doppelganger/internal/infra/db/postgres"
	"ai-doppelganger/internal/infra/knowledge"
	"ai-doppelganger/internal/infra/logging"
	"ai-doppelganger/internal/infra/metrics"
	red "ai-doppelganger/internal/infra/redis"
	"ai-doppelganger/internal/infra/web"
	"ai-doppelganger/internal/infra/worker"
	"ai-doppelganger/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed auth, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		rateLimiter *red.RateLimiter
		convCache   *red.ConversationCache
	)
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		convCache = red.NewConversationCache(redisClient, cfg.Redis.TTL)
	} else {
		logger.Warn().Msg("redis not configured; rate limiting and read cache disabled")
	}

	// ---- Conversation store ----
	var repo repository.ConversationRepository
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		repo = pg.NewConversationRepo(pool, convCache)
	default:
		fr, err := fileRepo.NewConversationRepo(cfg.Storage.File, logger)
		if err != nil {
			log.Fatalf("file store: %v", err)
		}
		repo = fr
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("conversation store ready")

	// ---- Knowledge base ----
	kb, err := knowledge.NewFileStore(cfg.Knowledge.Dir, logger)
	if err != nil {
		log.Fatalf("knowledge base: %v", err)
	}

	// ---- Text generation (Modal -> OpenAI -> Gemini, noop when nothing configured) ----
	failover := aiAdapters.NewFailoverAdapter(logger)
	if cfg.AI.Endpoint != "" {
		modal, err := aiAdapters.NewModalAdapter(cfg.AI.Endpoint, cfg.AI.Timeout)
		if err != nil {
			log.Fatalf("modal adapter: %v", err)
		}
		failover.Add("modal", modal)
		logger.Info().Str("endpoint", cfg.AI.Endpoint).Msg("text generation: self-hosted endpoint")
	}
	if cfg.AI.OpenAIKey != "" {
		openAI, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		failover.Add("openai", openAI)
		logger.Info().Str("model", cfg.AI.Model).Msg("text generation: openai fallback")
	}
	if cfg.AI.GeminiKey != "" {
		gemini, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		failover.Add("gemini", gemini)
		logger.Info().Msg("text generation: gemini fallback")
	}
	var gen adapter.TextGenerator = failover
	if failover.Len() == 0 {
		logger.Warn().Msg("no generation provider configured; serving rule-based replies only")
		gen = aiAdapters.NewNoopAdapter()
	}

	// ---- Mailer ----
	var mailer adapter.Mailer
	if cfg.Notification.Nylas.APIKey != "" && cfg.Notification.Nylas.GrantID != "" {
		mailer, err = mailAdapters.NewNylasMailer(
			cfg.Notification.Nylas.APIKey,
			cfg.Notification.Nylas.GrantID,
			cfg.Notification.Nylas.BaseURL,
		)
		if err != nil {
			log.Fatalf("nylas mailer: %v", err)
		}
	} else {
		logger.Warn().Msg("nylas not configured; notifications logged only")
		mailer = mailAdapters.NewNoopMailer(logger)
	}

	// ---- Worker pool (notification dispatch) ----
	pool := worker.NewPool(4, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(repo, mailer, cfg.Notification.OperatorEmail, logger)
	responderUC := usecase.NewResponderUseCase(kb, gen, cfg.AI, logger)
	chatUC := usecase.NewChatUseCase(ledgerUC, responderUC, kb, pool, cfg.Chat, logger)
	statsUC := usecase.NewStatsUseCase(repo, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(chatUC, ledgerUC, statsUC, kb, auth, rateLimiter, cfg, logger)

	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.PublicRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	admin := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           srv.AdminRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public server error")
		}
	}()
	go func() {
		logger.Info().Str("addr", admin.Addr).Msg("admin api listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = public.Shutdown(shutdownCtx)
	_ = admin.Shutdown(shutdownCtx)
	cancel()
}
