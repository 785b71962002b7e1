package domain

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrQuantityBelowMinimum = errors.New("quantity below minimum")
)

// FormField is used for errors that belong to the whole form.
const FormField = "non_field_errors"

// A ValidationError maps form fields to messages. It is produced both by
// client-side checks and by backend 400 responses.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		b.WriteString("; ")
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}
