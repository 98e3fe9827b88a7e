// dbhealth connects to the configured database, pings it, and reports row
// counts. Exits 0 on success, 1 on failure.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	var evaluations, templates int64
	if err := db.Gorm.WithContext(ctx).Model(&repository.Evaluation{}).Count(&evaluations).Error; err != nil {
		log.Fatalf("counting evaluations: %v", err)
	}
	if err := db.Gorm.WithContext(ctx).Model(&repository.Template{}).Count(&templates).Error; err != nil {
		log.Fatalf("counting templates: %v", err)
	}

	log.Printf("evaluations count: %d", evaluations)
	log.Printf("templates count: %d", templates)
}
