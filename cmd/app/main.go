package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-giveaway-bot/internal/application"
	"telegram-giveaway-bot/internal/config"
	pg "telegram-giveaway-bot/internal/infra/db/postgres"
	"telegram-giveaway-bot/internal/infra/logging"
	"telegram-giveaway-bot/internal/infra/metrics"
	red "telegram-giveaway-bot/internal/infra/redis"
	"telegram-giveaway-bot/internal/infra/sched"
	tele "telegram-giveaway-bot/internal/infra/telegram"
	"telegram-giveaway-bot/internal/infra/web"
	"telegram-giveaway-bot/internal/infra/worker"
	"telegram-giveaway-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres migrate failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	stateRepo := red.NewStateRepo(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	codeRepo := pg.NewRedeemCodeRepo(pool)
	redemptionRepo := pg.NewRedemptionRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Broadcast worker pool ----
	workerPool := worker.NewPool(cfg.Bot.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Telegram adapter ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, rateLimiter, cfg.Bot.Workers, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot init failed")
	}

	// ---- Use cases ----
	gateUC := usecase.NewGateUseCase(cfg.Bot.Channels(), botAdapter, userRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo, logger)
	redeemUC := usecase.NewRedeemUseCase(codeRepo, redemptionRepo, userRepo, txm, logger)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, botAdapter, workerPool, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, codeRepo, redemptionRepo, logger)

	// ---- Flow router ----
	router := application.NewRouter(botAdapter, &cfg.Bot, gateUC, userUC, redeemUC, broadcastUC, stateRepo, logger)
	botAdapter.AttachRouter(router)

	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented, falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin, !cfg.Runtime.Dev)
	srv := web.NewServer(statsUC, redeemUC, auth, cfg.Admin, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("admin API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin API server error")
		}
	}()

	// ---- Ledger stats gauges ----
	statsWorker := sched.NewStatsWorker(time.Minute, statsUC, logger)
	go func() { _ = statsWorker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin API shutdown error")
	}
}
