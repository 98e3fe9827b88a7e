// manuscriptd is the HTTP daemon: it wires the database, file storage, the
// configured model provider, and the evaluation pipeline behind the JSON
// API, and shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/llm/provider"
	"github.com/ladi-press/manuscript-eval/internal/pipeline"
	"github.com/ladi-press/manuscript-eval/internal/report"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/server"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// .env is optional; environment variables may come from elsewhere
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Error("opening storage", "error", err)
		os.Exit(1)
	}

	client, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("building model client", "error", err)
		os.Exit(1)
	}

	evaluations := repository.NewEvaluationRepository(db, logger)
	templates := repository.NewTemplateRepository(db, logger)
	evaluator := eval.NewEvaluator(client, cfg.LLM, logger)
	orchestrator := eval.NewOrchestrator(evaluator,
		pipeline.NewTemplateSource(templates, store, logger), cfg.Eval, logger)
	processor := pipeline.NewProcessor(store, evaluations, templates,
		orchestrator, report.NewService(store, logger), logger)

	srv := server.New(cfg, db, processor, evaluations, templates, store, logger)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen()
	}()

	select {
	case err := <-errc:
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Shutdown(10 * time.Second); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
