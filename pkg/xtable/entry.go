package xtable

import "fmt"

type Entry[T any] interface {
	ID() uint32
	Data() T
	Marks() []Mark
	HasMark(m Mark) bool
	String() string
}

type entry[T any] struct {
	id    uint32
	data  T
	marks []Mark
}

func (r entry[T]) ID() uint32    { return r.id }
func (r entry[T]) Data() T       { return r.data }
func (r entry[T]) Marks() []Mark { return r.marks }
func (r entry[T]) String() string {
	return fmt.Sprintf("id: %d, data: %v, marks: %v", r.id, r.data, r.marks)
}

func (r entry[T]) HasMark(m Mark) bool {
	for _, mark := range r.marks {
		if mark == m {
			return true
		}
	}
	return false
}

func NewEntry[T any](id uint32, d T, marks ...Mark) Entry[T] {
	return entry[T]{
		id:    id,
		data:  d,
		marks: marks,
	}
}
