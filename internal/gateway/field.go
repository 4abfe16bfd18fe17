package gateway

import (
	"bytes"
	"encoding/json"
)

// Field wraps an optional patch value and records whether the caller
// actually supplied it. A key present in the request body is applied even
// when the value is empty; an absent key leaves the attribute untouched.
// JSON null counts as absent.
type Field[T any] struct {
	Value T
	Set   bool
}

func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	f.Set = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
