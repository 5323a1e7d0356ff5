package repository

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/db/query"
)

// DefaultPageSize is used when a page request carries no usable size
const DefaultPageSize = 10

// Criteria is an equality predicate keyed by entity field name.
// A slice value matches any of its elements; an empty slice matches nothing.
type Criteria map[string]any

// Data is a full or partial entity keyed by entity field name
type Data map[string]any

// PageRequest selects one page of a filtered, ordered listing
type PageRequest struct {
	PageNumber int
	PageSize   int
	OrderBy    string
	OrderDesc  any
}

// Normalize clamps the page number to 1 and falls back to DefaultPageSize
func (p PageRequest) Normalize() (page, size int) {
	page, size = p.PageNumber, p.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return page, size
}

// ParseOrderDesc accepts true or the strings "true"/"desc" in any case
func ParseOrderDesc(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "desc"
	default:
		return false
	}
}

// sortedKeys keeps generated filters deterministic
func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toFilters translates criteria into column filters, coercing values to the column type
func toFilters(schema *interfaces.Schema, criteria Criteria) (*interfaces.Filters, error) {
	filters := &interfaces.Filters{}
	for _, field := range sortedKeys(criteria) {
		column, ok := schema.Column(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.TableName, field)
		}
		fieldType := schema.Fields[column].Type
		value := criteria[field]

		if values, isList := asList(value); isList {
			in := make([]interface{}, 0, len(values))
			for _, v := range values {
				coerced, err := query.Coerce(fieldType, v)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCriteria, field, err)
				}
				in = append(in, coerced)
			}
			filters.Conditions = append(filters.Conditions, interfaces.Filter{
				Field:    column,
				Operator: &interfaces.FilterOperator{In: in},
			})
			continue
		}

		coerced, err := query.Coerce(fieldType, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCriteria, field, err)
		}
		filters.Conditions = append(filters.Conditions, interfaces.Filter{Field: column, Value: coerced})
	}
	return filters, nil
}

// toRow translates entity-keyed data into a column-keyed row
func toRow(schema *interfaces.Schema, data Data) (interfaces.Row, error) {
	row := make(interfaces.Row, len(data))
	for field, value := range data {
		column, ok := schema.Column(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.TableName, field)
		}
		coerced, err := query.Coerce(schema.Fields[column].Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: field '%s': %v", interfaces.ErrInvalidQuery, field, err)
		}
		row[column] = coerced
	}
	return row, nil
}

// asList unpacks slice and array values; []byte stays a scalar
func asList(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
