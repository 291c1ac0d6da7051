package objtable

import (
	"fmt"

	"github.com/henderiw/xtable/pkg/xtable"
	"k8s.io/apimachinery/pkg/labels"
)

// Object is the value stored per id. The payload is copied on Add so callers
// may reuse their buffers.
type Object struct {
	Payload []byte
	Labels  labels.Set
}

type Item struct {
	ID     uint32
	Object Object
	Marks  []xtable.Mark
}

type ObjectTable interface {
	Add(payload []byte, l labels.Set) (uint32, error)
	AddMarked(payload []byte, l labels.Set, m xtable.Mark) (uint32, error)
	Get(id uint32) (Item, error)
	Mark(id uint32, m xtable.Mark) error
	Unmark(id uint32, m xtable.Mark) error
	Remove(id uint32) (Object, error)
	RemoveMarked(start uint32, m xtable.Mark) (Item, error)

	Count() int
	Limit() xtable.Limit

	List(selector labels.Selector) []Item
	NewReader(selector labels.Selector) *Reader

	Destroy()
}

func New(limit xtable.Limit) ObjectTable {
	return &objTable{
		table: xtable.New[Object](),
		limit: limit,
	}
}

type objTable struct {
	table xtable.Table[Object]
	limit xtable.Limit
}

func (r *objTable) Add(payload []byte, l labels.Set) (uint32, error) {
	return r.table.AllocRange(newObject(payload, l), r.limit)
}

// AddMarked allocates and marks in one step, so the new id is never visible
// without m.
func (r *objTable) AddMarked(payload []byte, l labels.Set, m xtable.Mark) (uint32, error) {
	return r.table.AllocRange(newObject(payload, l), r.limit, m)
}

func newObject(payload []byte, l labels.Set) Object {
	return Object{
		Payload: append([]byte(nil), payload...),
		Labels:  l,
	}
}

func (r *objTable) Get(id uint32) (Item, error) {
	if err := r.validateID(id); err != nil {
		return Item{}, err
	}
	o, err := r.table.Get(id)
	if err != nil {
		return Item{}, err
	}
	var marks []xtable.Mark
	for m := xtable.Mark0; m < xtable.NumMarks; m++ {
		if r.table.GetMark(id, m) {
			marks = append(marks, m)
		}
	}
	return Item{ID: id, Object: o, Marks: marks}, nil
}

func (r *objTable) Mark(id uint32, m xtable.Mark) error {
	if err := r.validateID(id); err != nil {
		return err
	}
	return r.table.SetMark(id, m)
}

func (r *objTable) Unmark(id uint32, m xtable.Mark) error {
	if err := r.validateID(id); err != nil {
		return err
	}
	return r.table.ClearMark(id, m)
}

func (r *objTable) Remove(id uint32) (Object, error) {
	if err := r.validateID(id); err != nil {
		return Object{}, err
	}
	o, ok := r.table.Erase(id)
	if !ok {
		return Object{}, fmt.Errorf("id %d: %w", id, xtable.ErrNotFound)
	}
	return o, nil
}

// RemoveMarked erases the first entry at or after start that carries m.
func (r *objTable) RemoveMarked(start uint32, m xtable.Mark) (Item, error) {
	e, ok := r.table.EraseMarked(start, m)
	if !ok {
		return Item{}, fmt.Errorf("no entry with %s from id %d: %w", m, start, xtable.ErrNotFound)
	}
	return Item{ID: e.ID(), Object: e.Data(), Marks: e.Marks()}, nil
}

func (r *objTable) Count() int {
	return r.table.Count()
}

func (r *objTable) Limit() xtable.Limit {
	return r.limit
}

// List returns the entries matching selector in ascending id order. A nil
// selector matches everything.
func (r *objTable) List(selector labels.Selector) []Item {
	if selector == nil {
		selector = labels.Everything()
	}
	items := []Item{}

	iter := r.table.Iterate()
	for iter.Next() {
		if selector.Matches(iter.Value().Labels) {
			items = append(items, Item{
				ID:     iter.ID(),
				Object: iter.Value(),
				Marks:  iter.Entry().Marks(),
			})
		}
	}
	return items
}

func (r *objTable) NewReader(selector labels.Selector) *Reader {
	return newReader(r.List(selector))
}

func (r *objTable) Destroy() {
	r.table.Destroy()
}

func (r *objTable) validateID(id uint32) error {
	if !r.limit.Contains(id) {
		return fmt.Errorf("id %d does not fit in the range %s: %w", id, r.limit, xtable.ErrNotFound)
	}
	return nil
}
