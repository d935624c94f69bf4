package record

import (
	"bytes"

	"github.com/goccy/go-json"
)

var nullLiteral = []byte("null")

// Nullable is a tri-state value for sparse patches. Used as *Nullable[T] with
// omitempty: a nil pointer is not sent, Null() is sent as null and Set(v) as v.
type Nullable[T any] struct {
	value T
	valid bool
}

// Set returns a Nullable carrying v.
func Set[T any](v T) *Nullable[T] {
	return &Nullable[T]{value: v, valid: true}
}

// Null returns a Nullable that encodes as JSON null.
func Null[T any]() *Nullable[T] {
	return &Nullable[T]{}
}

// Value returns the carried value and whether it is set (not null).
func (n *Nullable[T]) Value() (T, bool) {
	if n == nil {
		var zero T
		return zero, false
	}
	return n.value, n.valid
}

// IsNull reports whether n explicitly carries null.
func (n *Nullable[T]) IsNull() bool {
	return n != nil && !n.valid
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return nullLiteral, nil
	}
	return json.Marshal(n.value)
}

// UnmarshalJSON decodes a value, or null into the null state. Inside a
// struct a *Nullable[T] member is set to nil by the JSON decoder when the
// value is null, so this method is not called and IsNull stays false on
// decode; only a non-pointer Nullable[T] ends up in the null state.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		var zero T
		n.value, n.valid = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &n.value); err != nil {
		return err
	}
	n.valid = true
	return nil
}
