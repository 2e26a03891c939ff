package db

import (
	"fmt"
	"log"

	"rivo_booking_go/config"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize sets up the database connection. Postgres when DATABASE_URL is
// set, Turso when TURSO_DATABASE_URL is set, local sqlite with WAL mode
// otherwise.
func Initialize(cfg *config.Config) error {
	logLevel := logger.Info
	if cfg.Environment == "production" {
		logLevel = logger.Warn
	}
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var err error
	switch {
	case cfg.DatabaseURL != "":
		DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Println("Database connection established (postgres)")

	case cfg.TursoDatabaseURL != "":
		dsn := cfg.TursoDatabaseURL
		if cfg.TursoAuthToken != "" {
			dsn += "?authToken=" + cfg.TursoAuthToken
		}
		DB, err = gorm.Open(sqlite.Dialector{DriverName: "libsql", DSN: dsn}, gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to turso: %w", err)
		}
		log.Println("Database connection established (turso)")

	default:
		// Enable WAL mode for better concurrency support
		dsn := cfg.DBPath + "?_journal_mode=WAL&_busy_timeout=5000"
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("Database connection established (sqlite, WAL mode enabled)")
	}

	return nil
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
