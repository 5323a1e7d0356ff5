package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/db/query"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier is satisfied by both *sql.Conn and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is bound to one pooled connection, optionally inside a transaction
type Session struct {
	db   *Database
	conn *sql.Conn
	tx   *sql.Tx
	q    querier

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return interfaces.ErrSessionClosed
	}
	return nil
}

// Find runs a SELECT for the query
func (s *Session) Find(ctx context.Context, schema *interfaces.Schema, q *interfaces.Query) ([]interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	stmt, err := query.NewBuilder(schema).Select(s.db.dialect, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, classify("find "+schema.TableName, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, classify("find "+schema.TableName, err)
	}
	return out, nil
}

// Count runs a SELECT COUNT(*)
func (s *Session) Count(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	stmt, err := query.NewBuilder(schema).Count(s.db.dialect, where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.q.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
		return 0, classify("count "+schema.TableName, err)
	}
	return n, nil
}

// Insert runs an INSERT ... RETURNING
func (s *Session) Insert(ctx context.Context, schema *interfaces.Schema, row interfaces.Row) (interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	stmt, err := query.NewBuilder(schema).Insert(s.db.dialect, row)
	if err != nil {
		return nil, err
	}
	return s.returningOne(ctx, "insert "+schema.TableName, stmt)
}

// Update runs an UPDATE ... RETURNING and returns the first updated row
func (s *Session) Update(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters, patch interfaces.Row) (interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	stmt, err := query.NewBuilder(schema).Update(s.db.dialect, where, patch)
	if err != nil {
		return nil, err
	}
	return s.returningOne(ctx, "update "+schema.TableName, stmt)
}

func (s *Session) returningOne(ctx context.Context, op string, stmt query.Statement) (interfaces.Row, error) {
	rows, err := s.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(out) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return out[0], nil
}

// Delete runs a DELETE and reports rows affected
func (s *Session) Delete(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	stmt, err := query.NewBuilder(schema).Delete(s.db.dialect, where)
	if err != nil {
		return 0, err
	}
	res, err := s.q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, classify("delete "+schema.TableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("delete "+schema.TableName, err)
	}
	return n, nil
}

// Transaction begins a transaction on the session's connection
func (s *Session) Transaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Session) error) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &interfaces.DatabaseError{Op: "begin", Err: err}
	}
	defer tx.Rollback() // no-op after commit

	txSession := &Session{db: s.db, conn: s.conn, tx: tx, q: tx}
	if err := fn(ctx, txSession); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Fork acquires another connection from the pool
func (s *Session) Fork(ctx context.Context) (interfaces.Session, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.db.Fork(ctx)
}

// Close returns the connection to the pool. Transaction sessions borrow their
// parent's connection and leave it open.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.tx == nil && s.conn != nil {
			err = s.conn.Close()
		}
	})
	return err
}

func scanRows(rows *sql.Rows) ([]interfaces.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []interfaces.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(interfaces.Row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// classify maps driver constraint errors onto the interfaces sentinels
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, pgErr.Detail)}
		case "23503":
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, pgErr.Detail)}
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, liteErr.Error())}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, liteErr.Error())}
		case sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			// ON DELETE RESTRICT on the parent row is raised as a trigger constraint
			if strings.Contains(liteErr.Error(), "FOREIGN KEY") {
				return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, liteErr.Error())}
			}
		}
	}

	return &interfaces.DatabaseError{Op: op, Err: err}
}
