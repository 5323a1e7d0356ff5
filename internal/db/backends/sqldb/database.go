// Package sqldb implements the persistence engine on top of database/sql for
// PostgreSQL (pgx stdlib driver) and SQLite (modernc.org/sqlite).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/db/migrations"
	"github.com/leafsii/georef/internal/db/query"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// gooseMu guards goose's package level dialect and filesystem
var gooseMu sync.Mutex

// Options configures a SQL engine
type Options struct {
	Driver       string // "postgres" or "sqlite"
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Database implements interfaces.Database over a *sql.DB pool
type Database struct {
	opts    Options
	dialect query.Dialect
	logger  *zap.SugaredLogger

	mu sync.RWMutex
	db *sql.DB
}

// NewDatabase validates the options; no connection is opened until Connect
func NewDatabase(opts Options, logger *zap.SugaredLogger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var dialect query.Dialect
	switch opts.Driver {
	case "postgres":
		dialect = query.Postgres
	case "sqlite":
		dialect = query.SQLite
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", opts.Driver)
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%s: empty DSN", opts.Driver)
	}
	return &Database{opts: opts, dialect: dialect, logger: logger}, nil
}

// driverName maps the engine name to the registered database/sql driver
func (d *Database) driverName() string {
	if d.opts.Driver == "postgres" {
		return "pgx"
	}
	return "sqlite"
}

// Connect opens the pool and pings the server
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return nil
	}

	db, err := sql.Open(d.driverName(), d.opts.DSN)
	if err != nil {
		return &interfaces.DatabaseError{Op: "open", Err: err}
	}
	if d.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.opts.MaxOpenConns)
	}
	if d.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(d.opts.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &interfaces.DatabaseError{Op: "ping", Err: err}
	}

	d.db = db
	d.logger.Infow("Connected to SQL database", "driver", d.opts.Driver)
	return nil
}

// Disconnect closes the pool
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	d.logger.Infow("Disconnected from SQL database", "driver", d.opts.Driver)
	return err
}

// IsHealthy pings the database
func (d *Database) IsHealthy(ctx context.Context) bool {
	db, err := d.pool()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (d *Database) pool() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, interfaces.ErrDatabaseNotConnected
	}
	return d.db, nil
}

// Fork acquires a dedicated connection from the pool. Closing the session returns it.
func (d *Database) Fork(ctx context.Context) (interfaces.Session, error) {
	db, err := d.pool()
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, &interfaces.DatabaseError{Op: "fork", Err: err}
	}
	return &Session{db: d, conn: conn, q: conn}, nil
}

// Migrate applies the embedded goose migrations for the dialect. The schemas
// are already described by the SQL files and are only logged.
func (d *Database) Migrate(ctx context.Context, schemas []*interfaces.Schema) error {
	db, err := d.pool()
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(d.gooseDialect()); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrations.Dir(d.opts.Driver)); err != nil {
		return &interfaces.DatabaseError{Op: "migrate", Err: err}
	}

	tables := make([]string, 0, len(schemas))
	for _, s := range schemas {
		tables = append(tables, s.TableName)
	}
	d.logger.Infow("Migration completed", "driver", d.opts.Driver, "tables", tables)
	return nil
}

func (d *Database) gooseDialect() string {
	if d.opts.Driver == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

// DB exposes the underlying pool for tooling such as goose status
func (d *Database) DB() (*sql.DB, error) {
	return d.pool()
}
