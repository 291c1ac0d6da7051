package xtable

// Iterator walks a snapshot of the table taken when it was created. Mutations
// made to the table afterwards are not visible.
type Iterator[T any] struct {
	current int
	entries []Entry[T]
}

func newIterator[T any](entries []Entry[T]) *Iterator[T] {
	return &Iterator[T]{current: -1, entries: entries}
}

func (r *Iterator[T]) Entry() Entry[T] {
	return r.entries[r.current]
}

func (r *Iterator[T]) Value() T {
	return r.entries[r.current].Data()
}

func (r *Iterator[T]) ID() uint32 {
	return r.entries[r.current].ID()
}

func (r *Iterator[T]) Next() bool {
	r.current++
	return r.current < len(r.entries)
}

// Reset rewinds the iterator to before the first entry.
func (r *Iterator[T]) Reset() {
	r.current = -1
}

func (r *Iterator[T]) Len() int {
	return len(r.entries)
}

func (r *Iterator[T]) IsConsecutive() bool {
	if r.current < 1 {
		return false
	}
	return r.entries[r.current-1].ID() == r.entries[r.current].ID()-1
}
