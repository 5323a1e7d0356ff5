package interfaces

import (
	"errors"
	"sort"
)

// Row is a single stored record keyed by column name
type Row map[string]interface{}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter represents a column filter. A nil Operator means equality with Value.
type Filter struct {
	Field    string          `json:"field"`
	Value    interface{}     `json:"value,omitempty"`
	Operator *FilterOperator `json:"operator,omitempty"`
}

// FilterOperator represents the non-equality filter operations
type FilterOperator struct {
	In     []interface{} `json:"in,omitempty"`
	IsNull bool          `json:"is_null,omitempty"`
}

// Filters is a conjunction of column filters
type Filters struct {
	Conditions []Filter `json:"conditions,omitempty"`
}

// Empty reports whether the filters constrain nothing
func (f *Filters) Empty() bool {
	return f == nil || len(f.Conditions) == 0
}

// OrderBy represents sorting configuration
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Query represents a find with filtering, sorting, and pagination
type Query struct {
	Where   *Filters  `json:"where,omitempty"`
	OrderBy []OrderBy `json:"order_by,omitempty"`
	Limit   *int      `json:"limit,omitempty"`
	Offset  *int      `json:"offset,omitempty"`
}

// Schema represents entity schema definition. Fields are keyed by column name.
type Schema struct {
	TableName string                 `json:"table_name"`
	Fields    map[string]FieldSchema `json:"fields"`
	Indexes   []Index                `json:"indexes,omitempty"`
}

// FieldSchema represents a column definition
type FieldSchema struct {
	Field        string      `json:"field"` // entity field name used by callers
	Type         string      `json:"type"`  // "string", "int64", "bool", "time", "decimal"
	Nullable     bool        `json:"nullable"`
	DefaultValue interface{} `json:"default_value,omitempty"`
	Unique       bool        `json:"unique"`
	PrimaryKey   bool        `json:"primary_key"`
	ForeignKey   *ForeignKey `json:"foreign_key,omitempty"`
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Index represents a database index
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// PrimaryKey returns the identifier column
func (s *Schema) PrimaryKey() string {
	for column, field := range s.Fields {
		if field.PrimaryKey {
			return column
		}
	}
	return ""
}

// Column resolves an entity field name to its column
func (s *Schema) Column(field string) (string, bool) {
	for column, fs := range s.Fields {
		if fs.Field == field {
			return column, true
		}
	}
	return "", false
}

// Columns returns all column names in a stable order
func (s *Schema) Columns() []string {
	columns := make([]string, 0, len(s.Fields))
	for column := range s.Fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// UniqueFields returns the entity field names that carry a uniqueness constraint,
// either directly or through a unique index.
func (s *Schema) UniqueFields() []string {
	seen := make(map[string]struct{})
	var fields []string
	add := func(column string) {
		fs, ok := s.Fields[column]
		if !ok || fs.PrimaryKey {
			return
		}
		if _, dup := seen[fs.Field]; dup {
			return
		}
		seen[fs.Field] = struct{}{}
		fields = append(fields, fs.Field)
	}
	for _, column := range s.Columns() {
		if s.Fields[column].Unique {
			add(column)
		}
	}
	for _, idx := range s.Indexes {
		if idx.Unique {
			for _, column := range idx.Columns {
				add(column)
			}
		}
	}
	return fields
}

// Common database errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrUniqueConstraint     = errors.New("unique constraint violation")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrTransactionCompleted = errors.New("transaction already completed")
	ErrDatabaseNotConnected = errors.New("database not connected")
	ErrSessionClosed        = errors.New("session closed")
)

// DatabaseError wraps database-specific errors
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
