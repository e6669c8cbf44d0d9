package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/yatube/internal/models"
)

// Options controls how the connection is opened.
type Options struct {
	URL    string // sqlite://<path> or postgres://<dsn>
	LogSQL bool
}

// Open initializes and returns a GORM database connection for the given URL.
func Open(opts Options, log *zap.SugaredLogger) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts.URL, log)
	if err != nil {
		return nil, err
	}

	level := logger.Silent // Be quiet by default
	if opts.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(opts.URL, "sqlite://") {
		// SQLite serializes writers anyway; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	if log != nil {
		log.Infow("Database connection established")
	}
	return db, nil
}

func dialectorFor(url string, log *zap.SugaredLogger) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"):
		if log != nil {
			log.Infow("Connecting to PostgreSQL database")
		}
		// pgx accepts the URL form directly
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite://"):
		dsn := strings.TrimPrefix(url, "sqlite://")
		if !strings.Contains(dsn, "_pragma=foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)"
		}
		if log != nil {
			log.Infow("Connecting to SQLite database", "dsn", dsn)
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL prefix: must start with 'postgres://' or 'sqlite://'")
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
