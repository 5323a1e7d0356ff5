package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResultFailed      = errors.New("result holds no data")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidCriteria   = errors.New("invalid criteria")
	ErrAmbiguousCriteria = errors.New("criteria match more than one entity")
	ErrImmutableID       = errors.New("identifier cannot be changed")
	ErrEmptyCriteria     = errors.New("criteria must not be empty")
)

// ConflictError reports a write rejected by a uniqueness constraint
type ConflictError struct {
	Table  string
	Fields []string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s (unique: %s): %v", e.Table, strings.Join(e.Fields, ", "), e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
