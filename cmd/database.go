package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const driver = "pgx"

// initDB opens one pgx pool and shares it between sqlx (read side) and gorm (write side).
func initDB(cfg internal.DatabaseConfig, env string) (*sqlx.DB, *gorm.DB, error) {
	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	level := gormlogger.Warn
	if env == "production" {
		level = gormlogger.Error
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(slogWriter{slog.Default()}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return dbConn, gormDB, nil
}

// slogWriter routes gorm's printf-style logger into slog.
type slogWriter struct {
	l *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.l.Info(fmt.Sprintf(format, args...), "component", "gorm")
}
