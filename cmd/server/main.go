package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/database"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/handler"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/llm"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/logger"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/middleware"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/questiongen"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/router"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/secret"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/service"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/timer"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/validator"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("Starting Agentic Quiz Master")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	store, closeStore, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	sealer, err := secret.NewSealer(cfg.SecretKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize key sealer")
	}
	if cfg.SecretKey == "" {
		log.Warn().Msg("SECRET_KEY is not set; sealed API keys will not survive a restart")
	}

	bank, err := questiongen.DefaultBank()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question bank")
	}
	generator := questiongen.NewService(
		llm.NewFactory(cfg.LLM, log),
		questiongen.NewLLMGenerator(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		bank,
		cfg.LLM.Timeout,
		log,
	)
	quizService := service.NewQuizService(store, sealer, generator, cfg.Quiz, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	var recorder timer.TimeRecorder = quizService
	if rdb != nil {
		recorder = worker.NewTimeQueue(rdb)
		timeWorker := worker.NewTimeSyncWorker(rdb, quizService, log)

		workers.Add(1)
		go func() {
			defer workers.Done()
			timeWorker.Start(workerCtx)
		}()
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	timerHandler := handler.NewTimerHandler(quizService, recorder, rdb, cfg.TimeSyncInterval, log, cfg.AllowedOrigins)
	handlers := &router.Handlers{
		Quiz:   handler.NewQuizHandler(quizService),
		Timer:  timerHandler,
		System: handler.NewSystemHandler(rdb, timerHandler, log),
	}

	questionLimiter := middleware.NewRateLimiter(cfg.QuestionRateLimit, time.Minute)
	defer questionLimiter.Stop()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, questionLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
