package xtable

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Table is a sparse id-keyed registry. Ids are allocated first-fit from the
// free space, entries can carry marks and be found by mark in ascending id
// order.
type Table[T any] interface {
	Get(id uint32) (T, error)
	Insert(id uint32, d T) error
	Alloc(d T, max uint32, marks ...Mark) (uint32, error)
	AllocRange(d T, limit Limit, marks ...Mark) (uint32, error)
	Update(id uint32, d T) error
	Erase(id uint32) (T, bool)
	EraseMarked(start uint32, m Mark) (Entry[T], bool)

	SetMark(id uint32, m Mark) error
	ClearMark(id uint32, m Mark) error
	GetMark(id uint32, m Mark) bool
	FindMarked(start uint32, m Mark) (Entry[T], bool)

	Iterate() *Iterator[T]
	IterateMarked(m Mark) *Iterator[T]
	All() iter.Seq2[uint32, T]

	Count() int
	Has(id uint32) bool
	IsFree(id uint32) bool
	GetAll() map[uint32]T

	Destroy()
}

func New[T any]() Table[T] {
	r := &table[T]{
		m:     new(sync.RWMutex),
		table: map[uint32]T{},
	}
	for i := range r.marks {
		r.marks[i] = roaring.New()
	}
	return r
}

type table[T any] struct {
	m     *sync.RWMutex
	table map[uint32]T
	marks [NumMarks]*roaring.Bitmap
	// every id below next is occupied; math.MaxUint32+1 means the id space is full
	next uint64
}

func (r *table[T]) Get(id uint32) (T, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	d, ok := r.table[id]
	if !ok {
		return d, fmt.Errorf("no match found for id %d: %w", id, ErrNotFound)
	}
	return d, nil
}

func (r *table[T]) Insert(id uint32, d T) error {
	r.m.Lock()
	defer r.m.Unlock()

	if !r.isFree(id) {
		return fmt.Errorf("entry %d already exists", id)
	}
	r.add(id, d)
	return nil
}

func (r *table[T]) Alloc(d T, max uint32, marks ...Mark) (uint32, error) {
	return r.AllocRange(d, LimitTo(max), marks...)
}

// AllocRange stores d under the lowest free id in limit and sets marks on it
// before the id becomes visible to other callers.
func (r *table[T]) AllocRange(d T, limit Limit, marks ...Mark) (uint32, error) {
	for _, m := range marks {
		if !m.valid() {
			return 0, fmt.Errorf("mark %d is not defined, max %d: %w", m, NumMarks-1, ErrNotFound)
		}
	}

	r.m.Lock()
	defer r.m.Unlock()

	id, ok := r.findFree(limit)
	if !ok {
		return 0, fmt.Errorf("no free entry found in range %s: %w", limit, ErrResourceExhausted)
	}
	r.add(id, d)
	for _, m := range marks {
		r.marks[m].Add(id)
	}
	return id, nil
}

func (r *table[T]) Update(id uint32, d T) error {
	r.m.Lock()
	defer r.m.Unlock()

	if r.isFree(id) {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	r.table[id] = d
	return nil
}

func (r *table[T]) Erase(id uint32) (T, bool) {
	r.m.Lock()
	defer r.m.Unlock()

	d, ok := r.table[id]
	if !ok {
		return d, false
	}
	r.delete(id)
	return d, true
}

// EraseMarked removes the lowest id at or after start that carries m and
// returns it as it was just before removal.
func (r *table[T]) EraseMarked(start uint32, m Mark) (Entry[T], bool) {
	r.m.Lock()
	defer r.m.Unlock()

	id, ok := r.findMarked(start, m)
	if !ok {
		return nil, false
	}
	e := r.entry(id)
	r.delete(id)
	return e, true
}

func (r *table[T]) SetMark(id uint32, m Mark) error {
	r.m.Lock()
	defer r.m.Unlock()

	if err := r.validateMark(id, m); err != nil {
		return err
	}
	r.marks[m].Add(id)
	return nil
}

func (r *table[T]) ClearMark(id uint32, m Mark) error {
	r.m.Lock()
	defer r.m.Unlock()

	if err := r.validateMark(id, m); err != nil {
		return err
	}
	r.marks[m].Remove(id)
	return nil
}

func (r *table[T]) GetMark(id uint32, m Mark) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	if !m.valid() {
		return false
	}
	return r.marks[m].Contains(id)
}

func (r *table[T]) FindMarked(start uint32, m Mark) (Entry[T], bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	id, ok := r.findMarked(start, m)
	if !ok {
		return nil, false
	}
	return r.entry(id), true
}

func (r *table[T]) findMarked(start uint32, m Mark) (uint32, bool) {
	if !m.valid() {
		return 0, false
	}
	it := r.marks[m].Iterator()
	it.AdvanceIfNeeded(start)
	if !it.HasNext() {
		return 0, false
	}
	return it.Next(), true
}

func (r *table[T]) Iterate() *Iterator[T] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.iterate()
}

func (r *table[T]) iterate() *Iterator[T] {
	keys := make([]uint32, 0, len(r.table))
	for key := range r.table {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	entries := make([]Entry[T], 0, len(keys))
	for _, key := range keys {
		entries = append(entries, r.entry(key))
	}
	return newIterator(entries)
}

func (r *table[T]) IterateMarked(m Mark) *Iterator[T] {
	r.m.RLock()
	defer r.m.RUnlock()

	if !m.valid() {
		return newIterator[T](nil)
	}
	// bitmap contents are already ascending
	keys := r.marks[m].ToArray()
	entries := make([]Entry[T], 0, len(keys))
	for _, key := range keys {
		entries = append(entries, r.entry(key))
	}
	return newIterator(entries)
}

func (r *table[T]) All() iter.Seq2[uint32, T] {
	return func(yield func(uint32, T) bool) {
		it := r.Iterate()
		for it.Next() {
			if !yield(it.ID(), it.Value()) {
				return
			}
		}
	}
}

func (r *table[T]) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.table)
}

func (r *table[T]) Has(id uint32) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.table[id]
	return ok
}

func (r *table[T]) IsFree(id uint32) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.isFree(id)
}

func (r *table[T]) GetAll() map[uint32]T {
	r.m.RLock()
	defer r.m.RUnlock()

	entries := make(map[uint32]T, len(r.table))
	for id, d := range r.table {
		entries[id] = d
	}
	return entries
}

func (r *table[T]) Destroy() {
	r.m.Lock()
	defer r.m.Unlock()

	clear(r.table)
	for _, bm := range r.marks {
		bm.Clear()
	}
	r.next = 0
}

func (r *table[T]) isFree(id uint32) bool {
	_, ok := r.table[id]
	return !ok
}

// findFree returns the lowest free id in limit. The scan starts at the free
// cursor since nothing below it can be free.
func (r *table[T]) findFree(limit Limit) (uint32, bool) {
	if limit.Size() == 0 {
		return 0, false
	}
	id := max(uint64(limit.Min), r.next)
	for ; id <= uint64(limit.Max); id++ {
		if r.isFree(uint32(id)) {
			return uint32(id), true
		}
	}
	return 0, false
}

func (r *table[T]) add(id uint32, d T) {
	r.table[id] = d
	if uint64(id) == r.next {
		r.next++
		for r.next <= math.MaxUint32 && !r.isFree(uint32(r.next)) {
			r.next++
		}
	}
}

func (r *table[T]) delete(id uint32) {
	delete(r.table, id)
	for _, bm := range r.marks {
		bm.Remove(id)
	}
	if uint64(id) < r.next {
		r.next = uint64(id)
	}
}

func (r *table[T]) validateMark(id uint32, m Mark) error {
	if !m.valid() {
		return fmt.Errorf("mark %d is not defined, max %d: %w", m, NumMarks-1, ErrNotFound)
	}
	if r.isFree(id) {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return nil
}

// entry builds a snapshot of id with its current marks; callers hold the lock.
func (r *table[T]) entry(id uint32) Entry[T] {
	var marks []Mark
	for m, bm := range r.marks {
		if bm.Contains(id) {
			marks = append(marks, Mark(m))
		}
	}
	return NewEntry(id, r.table[id], marks...)
}
