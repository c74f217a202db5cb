package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/database"
	"github.com/stemsi/exstem-mockexam/internal/handler"
	"github.com/stemsi/exstem-mockexam/internal/logger"
	"github.com/stemsi/exstem-mockexam/internal/repository"
	"github.com/stemsi/exstem-mockexam/internal/router"
	"github.com/stemsi/exstem-mockexam/internal/service"
	"github.com/stemsi/exstem-mockexam/internal/validator"
	"github.com/stemsi/exstem-mockexam/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Int("free_daily_mock_exams", cfg.FreeDailyMockExams).
		Msg("Starting mock exam service")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	sessionLogRepo := repository.NewSessionLogRepository(pool)
	reviewRepo := repository.NewReviewOutcomeRepository(pool)
	topicRepo := repository.NewTopicPerformanceRepository(pool)
	badgeRepo := repository.NewBadgeTriggerRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	entitlementService := service.NewEntitlementService(rdb, cfg, log)
	resultPublisher := service.NewResultPublisher(rdb)
	mockExamService := service.NewMockExamService(questionRepo, entitlementService, resultPublisher, log,
		service.WithPublishTimeout(cfg.PublishTimeout),
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		MockExam: handler.NewMockExamHandler(mockExamService, sessionLogRepo, log),
		WS:       handler.NewWSHandler(mockExamService, log, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis":    handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers := worker.Run(workerCtx,
		worker.NewSessionLogWorker(sessionLogRepo, rdb, cfg, log),
		worker.NewReviewOutcomeWorker(reviewRepo, rdb, cfg, log),
		worker.NewTopicPerformanceWorker(topicRepo, rdb, cfg, log),
		worker.NewBadgeTriggerWorker(badgeRepo, rdb, cfg, log),
	)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Let submitted exams finish publishing to the queues.
	mockExamService.Wait()

	// 3. Stop workers; each flushes and drains its queue before returning.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
