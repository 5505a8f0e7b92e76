package models

// Maybe is a value that may be absent. Resolvers return it instead of a
// zero value so callers can tell "unresolved" from "resolved to empty".
type Maybe[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

func (m Maybe[T]) Present() bool {
	return m.ok
}

// OrElse returns the value, or def when absent.
func (m Maybe[T]) OrElse(def T) T {
	if m.ok {
		return m.value
	}
	return def
}
