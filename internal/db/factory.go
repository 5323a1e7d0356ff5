package db

import (
	"context"
	"fmt"

	"github.com/leafsii/georef/internal/db/backends/memory"
	"github.com/leafsii/georef/internal/db/backends/sqldb"
	"github.com/leafsii/georef/internal/db/interfaces"
	"go.uber.org/zap"
)

// Config holds database configuration
type Config struct {
	Type         string // "memory", "postgres", "sqlite"
	DSN          string // Data Source Name / Connection String
	UseInMemory  bool   // Force in-memory usage
	MaxOpenConns int    // Maximum open connections (for SQL backends)
	MaxIdleConns int    // Maximum idle connections (for SQL backends)
}

// NewDatabase creates a new database instance based on configuration
func NewDatabase(config *Config, logger *zap.SugaredLogger) (interfaces.Database, error) {
	if config == nil {
		config = &Config{Type: "memory"}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if config.UseInMemory {
		logger.Infow("Using in-memory database", "reason", "forced")
		return memory.NewDatabase(logger), nil
	}

	switch config.Type {
	case "", "memory":
		logger.Infow("Using in-memory database")
		return memory.NewDatabase(logger), nil
	case "postgres", "sqlite":
		logger.Infow("Using SQL database", "driver", config.Type)
		return sqldb.NewDatabase(sqldb.Options{
			Driver:       config.Type,
			DSN:          config.DSN,
			MaxOpenConns: config.MaxOpenConns,
			MaxIdleConns: config.MaxIdleConns,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// MustNewDatabase creates a new database instance and panics on error
func MustNewDatabase(config *Config, logger *zap.SugaredLogger) interfaces.Database {
	db, err := NewDatabase(config, logger)
	if err != nil {
		panic(fmt.Sprintf("failed to create database: %v", err))
	}
	return db
}

// NewInMemoryDatabase creates a new in-memory database instance
func NewInMemoryDatabase() interfaces.Database {
	return memory.NewDatabase(nil)
}

// ConnectAndMigrate connects to the database and runs migrations
func ConnectAndMigrate(ctx context.Context, db interfaces.Database, schemas []*interfaces.Schema) error {
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !db.IsHealthy(ctx) {
		return fmt.Errorf("database health check failed")
	}

	if err := db.Migrate(ctx, schemas); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
