package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leafsii/georef/internal/db/interfaces"
)

// Dialect captures the SQL differences between supported engines
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter
	Placeholder func(n int) string
	// NoLimit is emitted as the LIMIT value when only an offset is requested
	NoLimit string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		NoLimit:     "ALL",
	}
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		NoLimit:     "-1",
	}
)

// Statement is a rendered SQL statement with its bind arguments
type Statement struct {
	SQL  string
	Args []interface{}
}

type argList struct {
	dialect Dialect
	args    []interface{}
}

func (a *argList) add(v interface{}) string {
	a.args = append(a.args, v)
	return a.dialect.Placeholder(len(a.args))
}

// Quote quotes an identifier for both postgres and sqlite
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (b *Builder) checkColumn(column string) error {
	if _, ok := b.schema.Fields[column]; !ok {
		return fmt.Errorf("%w: unknown column '%s' on %s", interfaces.ErrInvalidQuery, column, b.schema.TableName)
	}
	return nil
}

func (b *Builder) where(filters *interfaces.Filters, args *argList) (string, error) {
	if filters.Empty() {
		return "", nil
	}
	clauses := make([]string, 0, len(filters.Conditions))
	for _, c := range filters.Conditions {
		if err := b.checkColumn(c.Field); err != nil {
			return "", err
		}
		col := Quote(c.Field)
		switch {
		case c.Operator == nil && c.Value == nil:
			clauses = append(clauses, col+" IS NULL")
		case c.Operator == nil:
			clauses = append(clauses, col+" = "+args.add(c.Value))
		case c.Operator.IsNull:
			clauses = append(clauses, col+" IS NULL")
		case c.Operator.In != nil && len(c.Operator.In) == 0:
			clauses = append(clauses, "1 = 0")
		case c.Operator.In != nil:
			holders := make([]string, len(c.Operator.In))
			for i, v := range c.Operator.In {
				holders[i] = args.add(v)
			}
			clauses = append(clauses, col+" IN ("+strings.Join(holders, ", ")+")")
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// Select renders a SELECT for the query
func (b *Builder) Select(d Dialect, q *interfaces.Query) (Statement, error) {
	if q == nil {
		q = &interfaces.Query{}
	}
	args := &argList{dialect: d}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.columnList())
	sb.WriteString(" FROM ")
	sb.WriteString(Quote(b.schema.TableName))

	where, err := b.where(q.Where, args)
	if err != nil {
		return Statement{}, err
	}
	sb.WriteString(where)

	if len(q.OrderBy) > 0 {
		parts := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			if err := b.checkColumn(o.Field); err != nil {
				return Statement{}, err
			}
			dir := "ASC"
			if o.Direction == interfaces.DirectionDesc {
				dir = "DESC"
			}
			parts = append(parts, Quote(o.Field)+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	switch {
	case q.Limit != nil:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*q.Limit))
	case q.Offset != nil:
		sb.WriteString(" LIMIT ")
		sb.WriteString(d.NoLimit)
	}
	if q.Offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(*q.Offset))
	}

	return Statement{SQL: sb.String(), Args: args.args}, nil
}

// Count renders a COUNT(*) over the filters
func (b *Builder) Count(d Dialect, where *interfaces.Filters) (Statement, error) {
	args := &argList{dialect: d}
	clause, err := b.where(where, args)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  "SELECT COUNT(*) FROM " + Quote(b.schema.TableName) + clause,
		Args: args.args,
	}, nil
}

// Insert renders an INSERT ... RETURNING for the row
func (b *Builder) Insert(d Dialect, row interfaces.Row) (Statement, error) {
	args := &argList{dialect: d}
	columns := make([]string, 0, len(row))
	holders := make([]string, 0, len(row))
	for _, column := range b.schema.Columns() {
		value, ok := row[column]
		if !ok {
			continue
		}
		columns = append(columns, Quote(column))
		holders = append(holders, args.add(value))
	}
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("%w: empty insert into %s", interfaces.ErrInvalidQuery, b.schema.TableName)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		Quote(b.schema.TableName),
		strings.Join(columns, ", "),
		strings.Join(holders, ", "),
		b.columnList(),
	)
	return Statement{SQL: sql, Args: args.args}, nil
}

// Update renders an UPDATE ... RETURNING applying patch to rows matching where
func (b *Builder) Update(d Dialect, where *interfaces.Filters, patch interfaces.Row) (Statement, error) {
	args := &argList{dialect: d}
	sets := make([]string, 0, len(patch))
	for _, column := range b.schema.Columns() {
		value, ok := patch[column]
		if !ok {
			continue
		}
		sets = append(sets, Quote(column)+" = "+args.add(value))
	}
	if len(sets) == 0 {
		return Statement{}, fmt.Errorf("%w: empty update of %s", interfaces.ErrInvalidQuery, b.schema.TableName)
	}
	clause, err := b.where(where, args)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s",
		Quote(b.schema.TableName),
		strings.Join(sets, ", "),
		clause,
		b.columnList(),
	)
	return Statement{SQL: sql, Args: args.args}, nil
}

// Delete renders a DELETE over the filters
func (b *Builder) Delete(d Dialect, where *interfaces.Filters) (Statement, error) {
	args := &argList{dialect: d}
	clause, err := b.where(where, args)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  "DELETE FROM " + Quote(b.schema.TableName) + clause,
		Args: args.args,
	}, nil
}

func (b *Builder) columnList() string {
	columns := b.schema.Columns()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Quote(c)
	}
	return strings.Join(quoted, ", ")
}
