package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ladi-press/manuscript-eval/internal/common"
)

// DB bundles the gorm handle with the underlying pgx pool (nil on the
// sqlite fallback).
type DB struct {
	Gorm   *gorm.DB
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the configured database. A postgres DSN goes through a
// pgx pool wrapped for gorm; an empty DSN opens the sqlite fallback file.
// The schema is migrated on open.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		gdb  *gorm.DB
		pool *pgxpool.Pool
		err  error
	)
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		gdb, pool, err = openPostgres(ctx, cfg, logger)
	} else {
		logger.Info("connecting to database", "driver", "sqlite", "path", cfg.SQLitePath)
		gdb, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if err := gdb.AutoMigrate(&Evaluation{}, &Template{}); err != nil {
		logger.Error("migration failed", "error", err)
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("successfully connected to database")
	return &DB{Gorm: gdb, pool: pool, logger: logger}, nil
}

// openPostgres creates a pgx pool, wraps it as *sql.DB, and hands the
// connection to gorm's postgres dialector.
func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*gorm.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "manuscript-eval"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return gdb, pool, nil
}

// Close closes the database connections gracefully.
func (d *DB) Close() {
	d.logger.Info("closing database connections")
	if sqlDB, err := d.Gorm.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.logger.Error("failed to close sql handle", "error", err)
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	d.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if d.pool != nil {
		return d.pool.Ping(ctx)
	}
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
