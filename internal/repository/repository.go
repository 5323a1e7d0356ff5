// Package repository provides a generic, engine-agnostic repository over a
// database session. Callers address entities by field name; the repository
// translates to columns, validates against the schema and reports every
// outcome as a Result.
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/db/query"
	"go.uber.org/zap"
)

// Recorder receives one observation per repository operation
type Recorder interface {
	RecordRepositoryOp(ctx context.Context, table, op string, success bool, duration time.Duration)
}

// Repository exposes CRUD operations for one entity type on one session
type Repository[T any] struct {
	session interfaces.Session
	mapping *Mapping[T]
	schema  *interfaces.Schema
	builder *query.Builder
	logger  *zap.SugaredLogger
	metrics Recorder
}

// New binds a mapping to a session. logger and metrics may be nil.
func New[T any](session interfaces.Session, mapping *Mapping[T], logger *zap.SugaredLogger, metrics Recorder) *Repository[T] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	schema := mapping.Schema()
	return &Repository[T]{
		session: session,
		mapping: mapping,
		schema:  schema,
		builder: query.NewBuilder(schema),
		logger:  logger.With("table", schema.TableName),
		metrics: metrics,
	}
}

// WithSession returns a copy of the repository bound to another session
func (r *Repository[T]) WithSession(session interfaces.Session) *Repository[T] {
	cp := *r
	cp.session = session
	return &cp
}

func (r *Repository[T]) observe(ctx context.Context, op string, start time.Time, err *error) {
	if r.metrics != nil {
		r.metrics.RecordRepositoryOp(ctx, r.schema.TableName, op, *err == nil, time.Since(start))
	}
}

// FindOne returns the first entity matching criteria, or a nil pointer when none does
func (r *Repository[T]) FindOne(ctx context.Context, criteria Criteria) Result[*T] {
	var err error
	defer r.observe(ctx, "find_one", time.Now(), &err)

	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return Fail[*T](err)
	}
	limit := 1
	rows, err := r.session.Find(ctx, r.schema, &interfaces.Query{Where: where, Limit: &limit})
	if err != nil {
		r.logger.Warnw("FindOne failed", "criteria", criteria, "error", err)
		return Fail[*T](err)
	}
	if len(rows) == 0 {
		return Ok[*T](nil)
	}
	entity, err := r.mapping.Decode(rows[0])
	if err != nil {
		return Fail[*T](err)
	}
	return Ok(&entity)
}

// FindAll returns every entity in storage order
func (r *Repository[T]) FindAll(ctx context.Context) Result[[]T] {
	return r.FindWhere(ctx, nil)
}

// FindWhere returns every entity matching criteria
func (r *Repository[T]) FindWhere(ctx context.Context, criteria Criteria) Result[[]T] {
	var err error
	defer r.observe(ctx, "find_where", time.Now(), &err)

	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return Fail[[]T](err)
	}
	rows, err := r.session.Find(ctx, r.schema, &interfaces.Query{Where: where})
	if err != nil {
		r.logger.Warnw("FindWhere failed", "criteria", criteria, "error", err)
		return Fail[[]T](err)
	}
	items, err := r.mapping.decodeAll(rows)
	if err != nil {
		return Fail[[]T](err)
	}
	return Ok(items)
}

// FindPaged returns one ordered page of the entities matching criteria along with the total match count
func (r *Repository[T]) FindPaged(ctx context.Context, criteria Criteria, req PageRequest) PagedResult[T] {
	var err error
	defer r.observe(ctx, "find_paged", time.Now(), &err)

	page, size := req.Normalize()

	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return PagedFail[T](err, page, size)
	}

	q := &interfaces.Query{Where: where}
	if req.OrderBy != "" {
		column, ok := r.schema.Column(req.OrderBy)
		if !ok {
			err = fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.TableName, req.OrderBy)
			return PagedFail[T](err, page, size)
		}
		direction := interfaces.DirectionAsc
		if ParseOrderDesc(req.OrderDesc) {
			direction = interfaces.DirectionDesc
		}
		q.OrderBy = []interfaces.OrderBy{{Field: column, Direction: direction}}
	} else {
		q.OrderBy = []interfaces.OrderBy{{Field: r.schema.PrimaryKey(), Direction: interfaces.DirectionAsc}}
	}

	total, err := r.session.Count(ctx, r.schema, where)
	if err != nil {
		r.logger.Warnw("FindPaged count failed", "criteria", criteria, "error", err)
		return PagedFail[T](err, page, size)
	}

	// pages whose offset does not fit in an int lie past any stored row
	if page-1 > math.MaxInt/size {
		return PagedOk([]T{}, page, size, total)
	}
	offset := (page - 1) * size
	q.Limit = &size
	q.Offset = &offset
	rows, err := r.session.Find(ctx, r.schema, q)
	if err != nil {
		r.logger.Warnw("FindPaged failed", "criteria", criteria, "page", page, "pageSize", size, "error", err)
		return PagedFail[T](err, page, size)
	}
	items, err := r.mapping.decodeAll(rows)
	if err != nil {
		return PagedFail[T](err, page, size)
	}
	return PagedOk(items, page, size, total)
}

// Count returns the number of entities matching criteria
func (r *Repository[T]) Count(ctx context.Context, criteria Criteria) (int64, error) {
	var err error
	defer r.observe(ctx, "count", time.Now(), &err)

	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return 0, err
	}
	n, err := r.session.Count(ctx, r.schema, where)
	if err != nil {
		r.logger.Warnw("Count failed", "criteria", criteria, "error", err)
		return 0, err
	}
	return n, nil
}

// Create inserts one entity, generating its identifier when absent
func (r *Repository[T]) Create(ctx context.Context, data Data) Result[T] {
	var err error
	defer r.observe(ctx, "create", time.Now(), &err)

	row, err := r.prepareInsert(data)
	if err != nil {
		return Fail[T](err)
	}
	stored, err := r.session.Insert(ctx, r.schema, row)
	if err != nil {
		err = r.writeError(err)
		r.logger.Warnw("Create failed", "error", err)
		return Fail[T](err)
	}
	entity, err := r.mapping.Decode(stored)
	if err != nil {
		return Fail[T](err)
	}
	r.logger.Debugw("Created entity", "id", stored[r.schema.PrimaryKey()])
	return Ok(entity)
}

// CreateMany inserts all entities in one transaction; either all are stored or none
func (r *Repository[T]) CreateMany(ctx context.Context, list []Data) Result[[]T] {
	var err error
	defer r.observe(ctx, "create_many", time.Now(), &err)

	rows := make([]interfaces.Row, 0, len(list))
	for i, data := range list {
		row, perr := r.prepareInsert(data)
		if perr != nil {
			err = fmt.Errorf("item %d: %w", i, perr)
			return Fail[[]T](err)
		}
		rows = append(rows, row)
	}

	items := make([]T, 0, len(rows))
	err = r.session.Transaction(ctx, func(ctx context.Context, tx interfaces.Session) error {
		for i, row := range rows {
			stored, ierr := tx.Insert(ctx, r.schema, row)
			if ierr != nil {
				return fmt.Errorf("item %d: %w", i, r.writeError(ierr))
			}
			entity, derr := r.mapping.Decode(stored)
			if derr != nil {
				return derr
			}
			items = append(items, entity)
		}
		return nil
	})
	if err != nil {
		r.logger.Warnw("CreateMany failed", "count", len(list), "error", err)
		return Fail[[]T](err)
	}
	return Ok(items)
}

// UpdateWhere applies patch to the single entity matching criteria.
// No match is ErrNotFound, several matches are ErrAmbiguousCriteria.
func (r *Repository[T]) UpdateWhere(ctx context.Context, criteria Criteria, patch Data) Result[T] {
	var err error
	defer r.observe(ctx, "update_where", time.Now(), &err)

	target, err := r.single(ctx, criteria)
	if err != nil {
		return Fail[T](err)
	}
	entity, err := r.update(ctx, target, patch)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(entity)
}

// UpsertWhere updates the single entity matching criteria, or creates one from
// the criteria values overlaid with data when nothing matches.
func (r *Repository[T]) UpsertWhere(ctx context.Context, criteria Criteria, data Data) Result[T] {
	var err error
	defer r.observe(ctx, "upsert_where", time.Now(), &err)

	if len(criteria) == 0 {
		err = ErrEmptyCriteria
		return Fail[T](err)
	}

	target, err := r.single(ctx, criteria)
	switch {
	case err == nil:
		entity, uerr := r.update(ctx, target, data)
		if uerr != nil {
			err = uerr
			return Fail[T](err)
		}
		return Ok(entity)
	case errors.Is(err, interfaces.ErrNotFound):
	default:
		return Fail[T](err)
	}

	merged := make(Data, len(criteria)+len(data))
	for field, value := range criteria {
		if _, isList := asList(value); isList {
			continue
		}
		merged[field] = value
	}
	for field, value := range data {
		merged[field] = value
	}

	row, err := r.prepareInsert(merged)
	if err != nil {
		return Fail[T](err)
	}
	stored, err := r.session.Insert(ctx, r.schema, row)
	if err != nil {
		err = r.writeError(err)
		r.logger.Warnw("UpsertWhere insert failed", "criteria", criteria, "error", err)
		return Fail[T](err)
	}
	entity, err := r.mapping.Decode(stored)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(entity)
}

// DeleteWhere removes every entity matching criteria and returns how many were removed
func (r *Repository[T]) DeleteWhere(ctx context.Context, criteria Criteria) (int64, error) {
	var err error
	defer r.observe(ctx, "delete_where", time.Now(), &err)

	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return 0, err
	}
	n, err := r.session.Delete(ctx, r.schema, where)
	if err != nil {
		r.logger.Warnw("DeleteWhere failed", "criteria", criteria, "error", err)
		return 0, err
	}
	return n, nil
}

// Clear removes every entity of the table
func (r *Repository[T]) Clear(ctx context.Context) (int64, error) {
	return r.DeleteWhere(ctx, nil)
}

// single returns the stored row of the only entity matching criteria
func (r *Repository[T]) single(ctx context.Context, criteria Criteria) (interfaces.Row, error) {
	where, err := toFilters(r.schema, criteria)
	if err != nil {
		return nil, err
	}
	limit := 2
	rows, err := r.session.Find(ctx, r.schema, &interfaces.Query{Where: where, Limit: &limit})
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%s: %w", r.schema.TableName, interfaces.ErrNotFound)
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", r.schema.TableName, ErrAmbiguousCriteria)
	}
}

// update patches the entity stored as target, addressing it by identifier
func (r *Repository[T]) update(ctx context.Context, target interfaces.Row, patch Data) (T, error) {
	var zero T

	row, err := toRow(r.schema, patch)
	if err != nil {
		return zero, err
	}
	pk := r.schema.PrimaryKey()
	id := target[pk]
	if newID, ok := row[pk]; ok {
		if !query.Equal(newID, id) {
			return zero, fmt.Errorf("%s: %w", r.schema.TableName, ErrImmutableID)
		}
		delete(row, pk)
	}
	if err := r.builder.ValidatePatch(row); err != nil {
		return zero, err
	}
	if len(row) == 0 {
		return r.mapping.Decode(target)
	}

	where := &interfaces.Filters{Conditions: []interfaces.Filter{{Field: pk, Value: id}}}
	stored, err := r.session.Update(ctx, r.schema, where, row)
	if err != nil {
		err = r.writeError(err)
		r.logger.Warnw("Update failed", "id", id, "error", err)
		return zero, err
	}
	return r.mapping.Decode(stored)
}

// prepareInsert converts data to a row, fills the identifier and validates it
func (r *Repository[T]) prepareInsert(data Data) (interfaces.Row, error) {
	row, err := toRow(r.schema, data)
	if err != nil {
		return nil, err
	}
	pk := r.schema.PrimaryKey()
	if id, ok := row[pk]; !ok || id == nil || id == "" {
		row[pk] = uuid.NewString()
	}
	for column, fs := range r.schema.Fields {
		if _, ok := row[column]; !ok && fs.Nullable {
			row[column] = nil
		}
	}
	if err := r.builder.ValidateData(row); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository[T]) writeError(err error) error {
	if errors.Is(err, interfaces.ErrUniqueConstraint) {
		return &ConflictError{Table: r.schema.TableName, Fields: r.schema.UniqueFields(), Err: err}
	}
	return err
}
