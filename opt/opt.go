// Package opt provides an explicit present/absent value.
package opt

import (
	"encoding/json"
	"fmt"
)

// Value holds either a present T or nothing. The zero Value is absent.
type Value[T any] struct {
	v  T
	ok bool
}

// Some returns a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.ok
}

func (o Value[T]) IsPresent() bool {
	return o.ok
}

// OrElse returns the value, or fallback when absent.
func (o Value[T]) OrElse(fallback T) T {
	if !o.ok {
		return fallback
	}
	return o.v
}

func (o Value[T]) String() string {
	if !o.ok {
		return "absent"
	}
	return fmt.Sprint(o.v)
}

// MarshalJSON renders an absent value as null.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON treats null as absent.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Value[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
