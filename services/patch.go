package services

import (
	"fmt"
	"unicode/utf8"
)

// Field is one optional value of a partial update. Set reports whether the
// client sent the field; a set field with a nil Value clears the column.
type Field[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a set Field holding v
func SetTo[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// SetNull returns a set Field that clears the column
func SetNull[T any]() Field[T] {
	return Field[T]{Set: true}
}

// apply records the field under column in changes when it was sent
func (f Field[T]) apply(changes map[string]interface{}, column string) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		changes[column] = nil
		return
	}
	changes[column] = *f.Value
}

// requireText validates a NOT NULL text field of at most limit characters
// (limit <= 0 means unbounded)
func requireText(field string, f Field[string], limit int) error {
	if !f.Set {
		return nil
	}
	if f.Value == nil || *f.Value == "" {
		return ErrInvalidInput.WithMessage(field+" is required").WithDetail(field, field+" is required")
	}
	return limitText(field, *f.Value, limit)
}

func limitText(field, value string, limit int) error {
	if limit > 0 && utf8.RuneCountInString(value) > limit {
		msg := fmt.Sprintf("%s must be at most %d characters", field, limit)
		return ErrInvalidInput.WithMessage(msg).WithDetail(field, msg)
	}
	return nil
}
