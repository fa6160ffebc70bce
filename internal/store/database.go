package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open dials either Postgres or SQLite depending on databaseURL's
// scheme, migrates the schema, and returns a ready *gorm.DB.
func Open(databaseURL string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	isSQLite := false
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		isSQLite = true
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// A file-less SQLite DSN opens a distinct in-memory database per
		// connection; pin the pool to one connection so callers (and
		// tests using ":memory:") see a single consistent database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&Paper{}, &Author{}, &Subject{}); err != nil {
		return nil, err
	}

	return db, nil
}

// gormLogger adapts slog to gorm's logger.Interface.
type gormLogger struct {
	logger *slog.Logger
}

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	return &gormLogger{logger: logger}
}

func (l *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Info(msg, slog.Any("args", args))
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Warn(msg, slog.Any("args", args))
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Error(msg, slog.Any("args", args))
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	elapsed := time.Since(begin)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.logger.Error("query failed", slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed), slog.String("error", err.Error()))
		return
	}
	l.logger.Debug("query", slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed))
}
