package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/db/query"
)

// Session implements interfaces.Session over the in-memory tables
type Session struct {
	db     *Database
	inTx   bool
	closed atomic.Bool
}

func newSession(db *Database, inTx bool) *Session {
	return &Session{db: db, inTx: inTx}
}

func (s *Session) check() error {
	if s.closed.Load() {
		return interfaces.ErrSessionClosed
	}
	if !s.db.IsHealthy(context.Background()) {
		return interfaces.ErrDatabaseNotConnected
	}
	return nil
}

// Find retrieves the rows matching the query
func (s *Session) Find(ctx context.Context, schema *interfaces.Schema, q *interfaces.Query) ([]interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if q == nil {
		q = &interfaces.Query{}
	}
	builder := query.NewBuilder(schema)

	records := s.matching(builder, q.Where)
	records = builder.ApplySort(records, q.OrderBy)
	return builder.ApplyPagination(records, q.Limit, q.Offset), nil
}

// Count returns the number of rows matching the filters
func (s *Session) Count(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return int64(len(s.matching(query.NewBuilder(schema), where))), nil
}

func (s *Session) matching(builder *query.Builder, where *interfaces.Filters) []interfaces.Row {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	table := s.db.tables[builder.Schema().TableName]
	records := make([]interfaces.Row, 0, len(table))
	for _, record := range table {
		if builder.MatchesFilters(record, where) {
			records = append(records, record.Clone())
		}
	}
	return records
}

// Insert stores a new row
func (s *Session) Insert(ctx context.Context, schema *interfaces.Schema, row interfaces.Row) (interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	pk := schema.PrimaryKey()
	id, ok := row[pk].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing identifier '%s'", interfaces.ErrInvalidQuery, pk)
	}

	record := row.Clone()
	for column, fieldSchema := range schema.Fields {
		if _, exists := record[column]; !exists && fieldSchema.DefaultValue != nil {
			record[column] = fieldSchema.DefaultValue
		}
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.tables[schema.TableName]; !exists {
		s.db.tables[schema.TableName] = make(map[string]interfaces.Row)
	}
	table := s.db.tables[schema.TableName]

	if _, exists := table[id]; exists {
		return nil, fmt.Errorf("%w: record with %s '%s' already exists", interfaces.ErrUniqueConstraint, pk, id)
	}
	if err := validateUniqueConstraints(schema, table, record, ""); err != nil {
		return nil, err
	}
	if err := s.validateForeignKeyConstraints(schema, record); err != nil {
		return nil, err
	}

	table[id] = record
	return record.Clone(), nil
}

// Update applies patch to the single row matching where
func (s *Session) Update(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters, patch interfaces.Row) (interfaces.Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	builder := query.NewBuilder(schema)
	pk := schema.PrimaryKey()

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var matches []string
	for id, record := range s.db.tables[schema.TableName] {
		if builder.MatchesFilters(record, where) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return nil, interfaces.ErrNotFound
	case 1:
	default:
		return nil, fmt.Errorf("%w: update matched %d rows", interfaces.ErrInvalidQuery, len(matches))
	}

	id := matches[0]
	table := s.db.tables[schema.TableName]
	if newID, ok := patch[pk]; ok && !query.Equal(newID, id) {
		return nil, fmt.Errorf("%w: identifier '%s' is immutable", interfaces.ErrInvalidQuery, pk)
	}

	updated := table[id].Clone()
	for k, v := range patch {
		updated[k] = v
	}

	if err := validateUniqueConstraints(schema, table, updated, id); err != nil {
		return nil, err
	}
	if err := s.validateForeignKeyConstraints(schema, updated); err != nil {
		return nil, err
	}

	table[id] = updated
	return updated.Clone(), nil
}

// Delete removes the rows matching where
func (s *Session) Delete(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	builder := query.NewBuilder(schema)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	table := s.db.tables[schema.TableName]
	var doomed []string
	for id, record := range table {
		if !builder.MatchesFilters(record, where) {
			continue
		}
		if err := s.validateForeignKeyConstraintsOnDelete(schema, record); err != nil {
			return 0, err
		}
		doomed = append(doomed, id)
	}
	for _, id := range doomed {
		delete(table, id)
	}
	return int64(len(doomed)), nil
}

// Transaction runs fn against a snapshot that is restored when fn fails
func (s *Session) Transaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Session) error) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.inTx {
		return fn(ctx, s)
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	tx := newTransaction(s.db)
	txSession := newSession(s.db, true)
	defer txSession.Close()

	defer func() {
		if !tx.completed() {
			tx.rollback(ctx)
		}
	}()

	if err := fn(ctx, txSession); err != nil {
		tx.rollback(ctx)
		return err
	}
	return tx.commit(ctx)
}

// Fork returns a fresh session over the same tables
func (s *Session) Fork(ctx context.Context) (interfaces.Session, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return newSession(s.db, false), nil
}

// Close marks the session closed
func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}

func validateUniqueConstraints(schema *interfaces.Schema, table map[string]interfaces.Row, record interfaces.Row, excludeID string) error {
	for fieldName, fieldSchema := range schema.Fields {
		if !fieldSchema.Unique {
			continue
		}
		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}
		for id, existing := range table {
			if id == excludeID {
				continue
			}
			if query.Equal(existing[fieldName], value) {
				return fmt.Errorf("%w: field '%s' value '%v'", interfaces.ErrUniqueConstraint, fieldSchema.Field, value)
			}
		}
	}

	for _, index := range schema.Indexes {
		if !index.Unique {
			continue
		}
		for id, existing := range table {
			if id == excludeID {
				continue
			}
			match := true
			for _, column := range index.Columns {
				if !query.Equal(existing[column], record[column]) {
					match = false
					break
				}
			}
			if match {
				return fmt.Errorf("%w: unique index '%s'", interfaces.ErrUniqueConstraint, index.Name)
			}
		}
	}

	return nil
}

// validateForeignKeyConstraints checks referenced rows exist. Caller holds db.mu.
func (s *Session) validateForeignKeyConstraints(schema *interfaces.Schema, record interfaces.Row) error {
	for fieldName, fieldSchema := range schema.Fields {
		if fieldSchema.ForeignKey == nil {
			continue
		}
		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}

		refTable, exists := s.db.tables[fieldSchema.ForeignKey.Table]
		if !exists {
			return fmt.Errorf("%w: referenced table '%s' does not exist", interfaces.ErrForeignKeyConstraint, fieldSchema.ForeignKey.Table)
		}

		found := false
		for _, refRecord := range refTable {
			if query.Equal(refRecord[fieldSchema.ForeignKey.Column], value) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: field '%s' references non-existent record '%v'", interfaces.ErrForeignKeyConstraint, fieldSchema.Field, value)
		}
	}
	return nil
}

// validateForeignKeyConstraintsOnDelete restricts deleting a row that other
// registered tables still reference. Caller holds db.mu.
func (s *Session) validateForeignKeyConstraintsOnDelete(schema *interfaces.Schema, record interfaces.Row) error {
	for tableName, other := range s.db.schemas {
		for column, fieldSchema := range other.Fields {
			fk := fieldSchema.ForeignKey
			if fk == nil || fk.Table != schema.TableName {
				continue
			}
			target := record[fk.Column]
			for _, ref := range s.db.tables[tableName] {
				if query.Equal(ref[column], target) {
					return fmt.Errorf("%w: record is referenced by table '%s', field '%s'", interfaces.ErrForeignKeyConstraint, tableName, fieldSchema.Field)
				}
			}
		}
	}
	return nil
}
