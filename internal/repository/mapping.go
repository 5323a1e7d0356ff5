package repository

import (
	"fmt"
	"reflect"
	"time"

	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Mapping converts between an entity struct and a stored row using the struct's db tags
type Mapping[T any] struct {
	schema  *interfaces.Schema
	columns map[string][]int // column -> struct field index
}

// NewMapping checks that every schema column has a db-tagged field on T
func NewMapping[T any](schema *interfaces.Schema) (*Mapping[T], error) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("mapping for %s: entity must be a struct, got %T", schema.TableName, zero)
	}

	columns := make(map[string][]int)
	for _, f := range reflect.VisibleFields(rt) {
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		columns[tag] = f.Index
	}

	for column := range schema.Fields {
		if _, ok := columns[column]; !ok {
			return nil, fmt.Errorf("mapping for %s: no field tagged db:%q", schema.TableName, column)
		}
	}
	for column := range columns {
		if _, ok := schema.Fields[column]; !ok {
			return nil, fmt.Errorf("mapping for %s: field tagged db:%q is not in the schema", schema.TableName, column)
		}
	}

	return &Mapping[T]{schema: schema, columns: columns}, nil
}

// MustMapping is NewMapping for package-level declarations
func MustMapping[T any](schema *interfaces.Schema) *Mapping[T] {
	m, err := NewMapping[T](schema)
	if err != nil {
		panic(err)
	}
	return m
}

// Schema returns the schema the mapping was checked against
func (m *Mapping[T]) Schema() *interfaces.Schema {
	return m.schema
}

// Encode flattens an entity into a row; nil pointers become nil values
func (m *Mapping[T]) Encode(entity T) interfaces.Row {
	rv := reflect.ValueOf(entity)
	row := make(interfaces.Row, len(m.columns))
	for column, index := range m.columns {
		fv := rv.FieldByIndex(index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				row[column] = nil
				continue
			}
			fv = fv.Elem()
		}
		row[column] = fv.Interface()
	}
	return row
}

// ToData is Encode keyed by entity field name, suitable for Create and UpsertWhere
func (m *Mapping[T]) ToData(entity T) Data {
	row := m.Encode(entity)
	data := make(Data, len(row))
	for column, value := range row {
		data[m.schema.Fields[column].Field] = value
	}
	return data
}

// Decode builds an entity from a row as returned by any storage engine
func (m *Mapping[T]) Decode(row interfaces.Row) (T, error) {
	var entity T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &entity,
		TagName:          "db",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return entity, err
	}
	if err := decoder.Decode(map[string]interface{}(row)); err != nil {
		return entity, fmt.Errorf("decode %s row: %w", m.schema.TableName, err)
	}
	return entity, nil
}

func (m *Mapping[T]) decodeAll(rows []interfaces.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		entity, err := m.Decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// decimalHook accepts the numeric representations drivers hand back for NUMERIC/REAL columns
func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	}
	return data, nil
}
