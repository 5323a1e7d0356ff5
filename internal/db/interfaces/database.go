package interfaces

import "context"

// Database represents the process-wide persistence engine handle
type Database interface {
	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Disconnect closes the database connection
	Disconnect(ctx context.Context) error

	// IsHealthy checks if the database connection is healthy
	IsHealthy(ctx context.Context) bool

	// Fork acquires an isolated session. The caller must Close it.
	Fork(ctx context.Context) (Session, error)

	// Migrate creates tables and applies schema changes
	Migrate(ctx context.Context, schemas []*Schema) error
}

// Session is a unit-of-work handle against the engine. Rows are keyed by column name.
type Session interface {
	// Find returns the rows matching the query
	Find(ctx context.Context, schema *Schema, q *Query) ([]Row, error)

	// Count returns the number of rows matching the filters
	Count(ctx context.Context, schema *Schema, where *Filters) (int64, error)

	// Insert stores a new row and returns it as stored
	Insert(ctx context.Context, schema *Schema, row Row) (Row, error)

	// Update applies patch to the single row matching where and returns it.
	// ErrNotFound when nothing matches.
	Update(ctx context.Context, schema *Schema, where *Filters, patch Row) (Row, error)

	// Delete removes the rows matching where and returns how many were removed
	Delete(ctx context.Context, schema *Schema, where *Filters) (int64, error)

	// Transaction runs fn with a session bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Session) error) error

	// Fork acquires a new isolated session from the same engine
	Fork(ctx context.Context) (Session, error)

	// Close releases the session. Closing twice is a no-op.
	Close() error
}
