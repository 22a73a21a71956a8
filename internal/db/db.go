package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

// Connect opens the postgres pool used by every repository.
func Connect(dsn string, logger *zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), Options(logger))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// Options is shared with tests so both drivers translate errors the same way.
func Options(logger *zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.New(zerologWriter{logger}, gormlogger.Config{SlowThreshold: 500 * time.Millisecond, LogLevel: gormlogger.Warn, IgnoreRecordNotFoundError: true}),
	}
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

type zerologWriter struct {
	logger *zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Warn().Str("component", "gorm").Msgf(format, args...)
}
