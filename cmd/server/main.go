package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"survey-server/internal/ai"
	"survey-server/internal/analytics"
	"survey-server/internal/config"
	"survey-server/internal/handler"
	"survey-server/internal/persona"
	"survey-server/internal/service"
	"survey-server/pkg/taskmanager"
	sharedLogger "survey-server/shared/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- Dependency Injection ---
	store, err := persona.NewStore(cfg, logger.Named("PersonaStore"))
	if err != nil {
		zap.L().Fatal("Failed to load personas", zap.Error(err))
	}
	zap.L().Info("Personas loaded", zap.Int("count", store.Count()))

	llm, err := ai.NewLLMClient(cfg, logger.Named("LLMClient"))
	if err != nil {
		zap.L().Fatal("Failed to create LLM client", zap.Error(err))
	}

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), logger.Named("EnsembleResponder"))
	analyzer := analytics.NewAnalyzer(llm, cfg.SamplingSeed, logger.Named("Analyzer"))
	meta := analytics.NewMetaAnalysis(llm, logger.Named("MetaAnalysis"))
	sim := service.NewSurveySimulation(responder, store, analyzer, meta, cfg, logger.Named("SurveySimulation"))

	tm, err := taskmanager.New(taskmanager.Config{MaxTasks: cfg.MaxBackgroundTasks})
	if err != nil {
		zap.L().Fatal("Failed to create task manager", zap.Error(err))
	}

	// Периодическая очистка завершенных задач
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.TaskRetention)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tm.CleanupTasks(cfg.TaskRetention)
			case <-cleanupDone:
				return
			}
		}
	}()

	surveyHandler := handler.NewSurveyHandler(sim, store, llm, tm, cfg, logger)

	// --- HTTP Server Setup (Gin) ---
	router := handler.NewRouter(cfg, surveyHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SurveyTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	close(cleanupDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	// Даем фоновым прогонам шанс завершиться
	if err := tm.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Task manager shutdown timed out, cancelling remaining tasks", zap.Error(err))
		tm.Close()
	}

	zap.L().Info("Server exiting")
}
