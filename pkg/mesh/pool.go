package mesh

import (
	"fmt"
	"slices"
)

// Equaler is implemented by attribute values stored in a Pool.
type Equaler[T any] interface {
	Equal(other T) bool
}

// Param is a free-form parameter-space vertex (OBJ "vp").
type Param []float64

// Equal reports exact element-wise equality.
func (p Param) Equal(other Param) bool {
	return slices.Equal(p, other)
}

// Pool is an insertion-ordered arena of attribute values owned by one Object.
// Lookups scan linearly, so Ensure is O(n) per call.
type Pool[T Equaler[T]] struct {
	items []T
}

// Ensure returns the 0-based index of an entry equal to v, appending v
// first if no such entry exists.
func (p *Pool[T]) Ensure(v T) int {
	for i, item := range p.items {
		if item.Equal(v) {
			return i
		}
	}
	p.items = append(p.items, v)
	return len(p.items) - 1
}

// Append adds v without deduplication and returns its 0-based index.
func (p *Pool[T]) Append(v T) int {
	p.items = append(p.items, v)
	return len(p.items) - 1
}

// At returns the entry referenced by a 1-based index.
func (p *Pool[T]) At(index int) (T, error) {
	if index < 1 || index > len(p.items) {
		var zero T
		return zero, fmt.Errorf("%w: index %d, pool has %d entries", ErrReference, index, len(p.items))
	}
	return p.items[index-1], nil
}

// Len returns the number of entries.
func (p *Pool[T]) Len() int {
	return len(p.items)
}

// Values returns the entries in insertion order. The slice is shared
// with the pool and must not be modified.
func (p *Pool[T]) Values() []T {
	return p.items
}

// Reset removes all entries.
func (p *Pool[T]) Reset() {
	p.items = p.items[:0]
}

// Clone returns an independent copy of the pool.
func (p *Pool[T]) Clone() Pool[T] {
	return Pool[T]{items: slices.Clone(p.items)}
}
