package repository

import (
	"encoding/json"
	"fmt"
	"math"
)

// Result is the outcome of a repository operation: either a payload or an error, never both.
// An empty payload (nil pointer, empty slice) is still a success.
type Result[T any] struct {
	success bool
	data    T
	err     error
}

// NewResult builds a Result and panics when success and err disagree
func NewResult[T any](success bool, data T, err error) Result[T] {
	if success && err != nil {
		panic("repository: successful result must not contain an error")
	}
	if !success && err == nil {
		panic("repository: unsuccessful result must contain an error")
	}
	return Result[T]{success: success, data: data, err: err}
}

// Ok returns a successful Result carrying data
func Ok[T any](data T) Result[T] {
	return NewResult(true, data, nil)
}

// Fail returns a failed Result carrying err. It panics when err is nil.
func Fail[T any](err error) Result[T] {
	var zero T
	return NewResult(false, zero, err)
}

// Success reports whether the operation succeeded
func (r Result[T]) Success() bool {
	return r.success
}

// Data returns the payload, or ErrResultFailed wrapping the cause for a failed result
func (r Result[T]) Data() (T, error) {
	if !r.success {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrResultFailed, r.err)
	}
	return r.data, nil
}

// MustData returns the payload and panics on a failed result
func (r Result[T]) MustData() T {
	data, err := r.Data()
	if err != nil {
		panic(err)
	}
	return data
}

// Err returns the failure cause, nil on success
func (r Result[T]) Err() error {
	return r.err
}

type resultJSON struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MarshalJSON renders {success, data} or {success, error}
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON{Success: r.success}
	if r.success {
		out.Data = r.data
	} else {
		out.Error = r.err.Error()
	}
	return json.Marshal(out)
}

// PagedResult is a Result over one page of entities plus the page metadata.
// The metadata is fixed at construction.
type PagedResult[T any] struct {
	Result[[]T]
	currentPage int
	pageSize    int
	totalItems  int64
	totalPages  int
}

// PagedOk returns a successful page
func PagedOk[T any](data []T, currentPage, pageSize int, totalItems int64) PagedResult[T] {
	if data == nil {
		data = []T{}
	}
	return PagedResult[T]{
		Result:      Ok(data),
		currentPage: currentPage,
		pageSize:    pageSize,
		totalItems:  totalItems,
		totalPages:  TotalPages(totalItems, pageSize),
	}
}

// PagedFail returns a failed page that keeps the requested page metadata
func PagedFail[T any](err error, currentPage, pageSize int) PagedResult[T] {
	return PagedResult[T]{
		Result:      Fail[[]T](err),
		currentPage: currentPage,
		pageSize:    pageSize,
	}
}

// TotalPages is ceil(totalItems / pageSize); zero for a non-positive page size
func TotalPages(totalItems int64, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalItems) / float64(pageSize)))
}

func (p PagedResult[T]) CurrentPage() int  { return p.currentPage }
func (p PagedResult[T]) PageSize() int     { return p.pageSize }
func (p PagedResult[T]) TotalItems() int64 { return p.totalItems }
func (p PagedResult[T]) TotalPages() int   { return p.totalPages }

type pagedJSON struct {
	resultJSON
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

// MarshalJSON renders the result fields plus the page metadata
func (p PagedResult[T]) MarshalJSON() ([]byte, error) {
	out := pagedJSON{
		resultJSON:  resultJSON{Success: p.success},
		CurrentPage: p.currentPage,
		PageSize:    p.pageSize,
		TotalItems:  p.totalItems,
		TotalPages:  p.totalPages,
	}
	if p.success {
		out.Data = p.data
	} else {
		out.Error = p.err.Error()
	}
	return json.Marshal(out)
}
