// Package database opens the gorm connection shared by the repositories.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

var DB *gorm.DB

// Connect opens DB_DRIVER/DATABASE_DSN into DB and configures the pool.
func Connect() error {
	db, err := Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}

	DB = db
	return nil
}

// Open connects to dsn with the named driver, logging slow queries through
// pkg/logger and timing every statement into metrics.DBQueryDuration.
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         slogGorm{slow: 200 * time.Millisecond},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	if err := registerTimings(db); err != nil {
		return nil, fmt.Errorf("database: register callbacks: %w", err)
	}
	return db, nil
}

// Close releases the pool behind DB.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}

// ─── Query timing ─────────────────────────────────────────────────────────────

const startKey = "bazaar:query_start"

func registerTimings(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("bazaar:before_create", startTimer),
		cb.Create().After("gorm:create").Register("bazaar:after_create", stopTimer("create")),
		cb.Query().Before("gorm:query").Register("bazaar:before_query", startTimer),
		cb.Query().After("gorm:query").Register("bazaar:after_query", stopTimer("query")),
		cb.Update().Before("gorm:update").Register("bazaar:before_update", startTimer),
		cb.Update().After("gorm:update").Register("bazaar:after_update", stopTimer("update")),
		cb.Delete().Before("gorm:delete").Register("bazaar:before_delete", startTimer),
		cb.Delete().After("gorm:delete").Register("bazaar:after_delete", stopTimer("delete")),
		cb.Raw().Before("gorm:raw").Register("bazaar:before_raw", startTimer),
		cb.Raw().After("gorm:raw").Register("bazaar:after_raw", stopTimer("raw")),
	)
}

func startTimer(tx *gorm.DB) {
	tx.InstanceSet(startKey, time.Now())
}

func stopTimer(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if v, ok := tx.InstanceGet(startKey); ok {
			if start, ok := v.(time.Time); ok {
				metrics.ObserveDBQuery(op, start)
			}
		}
	}
}

// ─── gorm → slog ──────────────────────────────────────────────────────────────

// slogGorm routes gorm's own logging into the request logger. Only errors
// and slow statements are reported.
type slogGorm struct {
	slow time.Duration
}

func (l slogGorm) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (slogGorm) Info(ctx context.Context, msg string, args ...interface{}) {
	logger.WithCtx(ctx).Info(fmt.Sprintf(msg, args...))
}

func (slogGorm) Warn(ctx context.Context, msg string, args ...interface{}) {
	logger.WithCtx(ctx).Warn(fmt.Sprintf(msg, args...))
}

func (slogGorm) Error(ctx context.Context, msg string, args ...interface{}) {
	logger.WithCtx(ctx).Error(fmt.Sprintf(msg, args...))
}

func (l slogGorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		logger.WithCtx(ctx).Error("db: query failed", "sql", sql, "rows", rows, "duration", elapsed.String(), "error", err)
	case l.slow > 0 && elapsed > l.slow:
		sql, rows := fc()
		logger.WithCtx(ctx).Warn("db: slow query", "sql", sql, "rows", rows, "duration", elapsed.String())
	}
}
