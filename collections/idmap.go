package collections

import "fmt"

// IDMap is a dense ordered map addressed by a TypedID of space S: insertion
// order is index order and there are no gaps.
type IDMap[S, T any] struct {
	items []T
}

// NewIDMap wraps a slice into an IDMap; element i is addressed by id i.
func NewIDMap[S, T any](items []T) *IDMap[S, T] {
	return &IDMap[S, T]{items: items}
}

// NewIDMapSized returns an IDMap of n zero values.
func NewIDMapSized[S, T any](n int) *IDMap[S, T] {
	return &IDMap[S, T]{items: make([]T, n)}
}

func (m *IDMap[S, T]) Len() int {
	return len(m.items)
}

func (m *IDMap[S, T]) Get(id TypedID[S]) (T, error) {
	var zero T
	if id.AsInt() < 0 || id.AsInt() >= len(m.items) {
		return zero, fmt.Errorf("collections: id %s out of range [0,%d)", id, len(m.items))
	}
	return m.items[id.AsInt()], nil
}

func (m *IDMap[S, T]) Set(id TypedID[S], v T) error {
	if id.AsInt() < 0 || id.AsInt() >= len(m.items) {
		return fmt.Errorf("collections: id %s out of range [0,%d)", id, len(m.items))
	}
	m.items[id.AsInt()] = v
	return nil
}

// IDs returns every id of the map in ascending order.
func (m *IDMap[S, T]) IDs() []TypedID[S] {
	ids := make([]TypedID[S], len(m.items))
	for i := range m.items {
		ids[i] = IDFromInt[S](i)
	}
	return ids
}

// Values returns a copy of the underlying slice in index order.
func (m *IDMap[S, T]) Values() []T {
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}
