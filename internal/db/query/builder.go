package query

import (
	"fmt"
	"sort"

	"github.com/leafsii/georef/internal/db/interfaces"
)

// Builder helps construct database queries
type Builder struct {
	schema *interfaces.Schema
}

// NewBuilder creates a new query builder for a schema
func NewBuilder(schema *interfaces.Schema) *Builder {
	return &Builder{schema: schema}
}

// Schema returns the schema the builder was created for
func (b *Builder) Schema() *interfaces.Schema {
	return b.schema
}

// MatchesFilters checks if a record matches the given filters
func (b *Builder) MatchesFilters(record interfaces.Row, filters *interfaces.Filters) bool {
	if filters == nil {
		return true
	}
	for _, condition := range filters.Conditions {
		if !b.matchesCondition(record, condition) {
			return false
		}
	}
	return true
}

func (b *Builder) matchesCondition(record interfaces.Row, condition interfaces.Filter) bool {
	fieldValue, exists := record[condition.Field]

	if condition.Operator == nil {
		if !exists {
			return condition.Value == nil
		}
		return Equal(fieldValue, condition.Value)
	}

	op := condition.Operator
	if op.IsNull {
		return !exists || fieldValue == nil
	}
	if op.In != nil {
		for _, val := range op.In {
			if Equal(fieldValue, val) {
				return true
			}
		}
		return false
	}
	return true
}

// ApplySort sorts records according to the OrderBy specification.
// Rows that compare equal on every key keep no guaranteed relative order.
func (b *Builder) ApplySort(records []interfaces.Row, orderBy []interfaces.OrderBy) []interfaces.Row {
	if len(orderBy) == 0 {
		return records
	}

	sorted := make([]interfaces.Row, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		for _, order := range orderBy {
			cmp := Compare(sorted[i][order.Field], sorted[j][order.Field])
			if cmp == 0 {
				continue
			}
			if order.Direction == interfaces.DirectionDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return sorted
}

// ApplyPagination applies limit and offset to the records
func (b *Builder) ApplyPagination(records []interfaces.Row, limit, offset *int) []interfaces.Row {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}

	if start >= len(records) {
		return []interfaces.Row{}
	}

	end := len(records)
	if limit != nil && *limit >= 0 {
		end = start + *limit
		if end > len(records) {
			end = len(records)
		}
	}

	return records[start:end]
}

// ValidateData validates a full row against the schema before it is inserted
func (b *Builder) ValidateData(data interfaces.Row) error {
	for _, fieldName := range b.schema.Columns() {
		fieldSchema := b.schema.Fields[fieldName]
		value, exists := data[fieldName]

		if !fieldSchema.Nullable && (!exists || value == nil) && fieldSchema.DefaultValue == nil {
			return fmt.Errorf("%w: field '%s' is required", interfaces.ErrInvalidQuery, fieldSchema.Field)
		}
		if exists && value != nil {
			if err := b.validateFieldType(fieldSchema.Field, value, fieldSchema.Type); err != nil {
				return err
			}
		}
	}

	for column := range data {
		if _, ok := b.schema.Fields[column]; !ok {
			return fmt.Errorf("%w: unknown column '%s'", interfaces.ErrInvalidQuery, column)
		}
	}

	return nil
}

// ValidatePatch validates a partial row against the schema before an update
func (b *Builder) ValidatePatch(patch interfaces.Row) error {
	for column, value := range patch {
		fieldSchema, ok := b.schema.Fields[column]
		if !ok {
			return fmt.Errorf("%w: unknown column '%s'", interfaces.ErrInvalidQuery, column)
		}
		if value == nil {
			if !fieldSchema.Nullable {
				return fmt.Errorf("%w: field '%s' cannot be null", interfaces.ErrInvalidQuery, fieldSchema.Field)
			}
			continue
		}
		if err := b.validateFieldType(fieldSchema.Field, value, fieldSchema.Type); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) validateFieldType(fieldName string, value interface{}, expectedType string) error {
	if _, err := Coerce(expectedType, value); err != nil {
		return fmt.Errorf("%w: field '%s': %v", interfaces.ErrInvalidQuery, fieldName, err)
	}
	return nil
}
