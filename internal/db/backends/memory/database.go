package memory

import (
	"context"
	"sync"

	"github.com/leafsii/georef/internal/db/interfaces"
	"go.uber.org/zap"
)

// Database implements the Database interface for in-memory storage
type Database struct {
	mu        sync.RWMutex
	txMu      sync.Mutex                           // serializes transactions
	tables    map[string]map[string]interfaces.Row // tableName -> recordID -> record
	schemas   map[string]*interfaces.Schema        // tableName -> schema
	connected bool
	logger    *zap.SugaredLogger
}

// NewDatabase creates a new in-memory database
func NewDatabase(logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Database{
		tables:  make(map[string]map[string]interfaces.Row),
		schemas: make(map[string]*interfaces.Schema),
		logger:  logger,
	}
}

// Connect establishes a connection to the database
func (db *Database) Connect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = true
	db.logger.Infow("Connected to in-memory database")
	return nil
}

// Disconnect closes the database connection and drops all data
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = false
	db.tables = make(map[string]map[string]interfaces.Row)
	db.schemas = make(map[string]*interfaces.Schema)
	db.logger.Infow("Disconnected from in-memory database")
	return nil
}

// IsHealthy checks if the database connection is healthy
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.connected
}

// Fork returns a new session over the shared tables
func (db *Database) Fork(ctx context.Context) (interfaces.Session, error) {
	if !db.IsHealthy(ctx) {
		return nil, interfaces.ErrDatabaseNotConnected
	}
	return newSession(db, false), nil
}

// Migrate creates tables and registers schemas
func (db *Database) Migrate(ctx context.Context, schemas []*interfaces.Schema) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	for _, schema := range schemas {
		db.schemas[schema.TableName] = schema
		if _, exists := db.tables[schema.TableName]; !exists {
			db.tables[schema.TableName] = make(map[string]interfaces.Row)
			db.logger.Debugw("Created in-memory table", "table", schema.TableName)
		}
	}

	db.logger.Infow("Migration completed", "schemas", len(schemas))
	return nil
}

// TableData returns a copy of all rows of a table (for debugging/testing)
func (db *Database) TableData(tableName string) map[string]interfaces.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()

	table, exists := db.tables[tableName]
	if !exists {
		return nil
	}

	result := make(map[string]interfaces.Row, len(table))
	for id, record := range table {
		result[id] = record.Clone()
	}
	return result
}

// snapshot deep copies all tables. Caller holds db.mu.
func (db *Database) snapshot() map[string]map[string]interfaces.Row {
	out := make(map[string]map[string]interfaces.Row, len(db.tables))
	for tableName, table := range db.tables {
		copied := make(map[string]interfaces.Row, len(table))
		for id, record := range table {
			copied[id] = record.Clone()
		}
		out[tableName] = copied
	}
	return out
}
