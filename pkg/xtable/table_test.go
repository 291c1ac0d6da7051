package xtable

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initEntries = map[uint32]string{
	0:   "a",
	1:   "b",
	999: "c",
}

func newTable(t *testing.T, entries map[uint32]string) Table[string] {
	t.Helper()
	r := New[string]()
	for id, d := range entries {
		require.NoError(t, r.Insert(id, d))
	}
	return r
}

func keys[T any](it *Iterator[T]) []uint32 {
	ids := []uint32{}
	for it.Next() {
		ids = append(ids, it.ID())
	}
	return ids
}

func TestAlloc(t *testing.T) {
	cases := map[string]struct {
		initEntries map[uint32]string
		allocs      int
		max         uint32
		expectedIDs []uint32
		expectedErr error
	}{
		"Empty": {
			allocs:      3,
			max:         math.MaxUint32,
			expectedIDs: []uint32{0, 1, 2},
		},
		"FillHoles": {
			initEntries: initEntries,
			allocs:      3,
			max:         math.MaxUint32,
			expectedIDs: []uint32{2, 3, 4},
		},
		"ExhaustedAtZero": {
			initEntries: map[uint32]string{0: "a"},
			allocs:      1,
			max:         0,
			expectedIDs: []uint32{},
			expectedErr: ErrResourceExhausted,
		},
		"ExhaustedAfterFill": {
			allocs:      3,
			max:         1,
			expectedIDs: []uint32{0, 1},
			expectedErr: ErrResourceExhausted,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, tc.initEntries)

			ids := []uint32{}
			var err error
			for i := 0; i < tc.allocs; i++ {
				var id uint32
				id, err = r.Alloc("x", tc.max)
				if err != nil {
					break
				}
				ids = append(ids, id)
			}
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			if diff := cmp.Diff(tc.expectedIDs, ids); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			if r.Count() != len(tc.initEntries)+len(tc.expectedIDs) {
				t.Errorf("%s: -want %d, +got: %d\n", name, len(tc.initEntries)+len(tc.expectedIDs), r.Count())
			}
		})
	}
}

func TestAllocRange(t *testing.T) {
	cases := map[string]struct {
		initEntries map[uint32]string
		limit       Limit
		expectedID  uint32
		expectedErr bool
	}{
		"StartAtMin": {
			initEntries: initEntries,
			limit:       Limit{Min: 10, Max: 20},
			expectedID:  10,
		},
		"SkipOccupied": {
			initEntries: initEntries,
			limit:       Limit{Min: 999, Max: 1001},
			expectedID:  1000,
		},
		"Full": {
			initEntries: initEntries,
			limit:       Limit{Min: 0, Max: 1},
			expectedErr: true,
		},
		"Inverted": {
			limit:       Limit{Min: 5, Max: 4},
			expectedErr: true,
		},
		"TopOfIDSpace": {
			limit:      Limit{Min: math.MaxUint32, Max: math.MaxUint32},
			expectedID: math.MaxUint32,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, tc.initEntries)

			id, err := r.AllocRange("x", tc.limit)
			if tc.expectedErr {
				assert.ErrorIs(t, err, ErrResourceExhausted)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedID, id)
			assert.True(t, r.Has(id))
		})
	}
}

func TestInsert(t *testing.T) {
	r := newTable(t, initEntries)

	assert.NoError(t, r.Insert(10, "d"))
	assert.Error(t, r.Insert(999, "x"))

	d, err := r.Get(999)
	assert.NoError(t, err)
	assert.Equal(t, "c", d)

	// an explicit insert at the cursor moves it past the occupied run
	assert.NoError(t, r.Insert(2, "e"))
	id, err := r.Alloc("f", math.MaxUint32)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), id)
}

func TestUpdate(t *testing.T) {
	r := newTable(t, initEntries)
	assert.NoError(t, r.SetMark(1, Mark1))

	assert.NoError(t, r.Update(1, "bb"))
	assert.ErrorIs(t, r.Update(2, "x"), ErrNotFound)

	d, err := r.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, "bb", d)
	assert.True(t, r.GetMark(1, Mark1))
}

func TestErase(t *testing.T) {
	cases := map[string]struct {
		initEntries     map[uint32]string
		eraseSuccess    []uint32
		eraseMissing    []uint32
		expectedEntries int
	}{
		"Normal": {
			initEntries:     initEntries,
			eraseSuccess:    []uint32{0, 999},
			eraseMissing:    []uint32{20, 21},
			expectedEntries: 1,
		},
		"Empty": {
			eraseMissing: []uint32{0},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, tc.initEntries)

			for _, id := range tc.eraseSuccess {
				d, ok := r.Erase(id)
				assert.True(t, ok)
				assert.Equal(t, tc.initEntries[id], d)

				_, err := r.Get(id)
				assert.ErrorIs(t, err, ErrNotFound)
			}
			for _, id := range tc.eraseMissing {
				d, ok := r.Erase(id)
				assert.False(t, ok)
				assert.Zero(t, d)
			}
			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, r.Count())
			}
		})
	}
}

func TestEraseRoundTrip(t *testing.T) {
	r := New[string]()

	id, err := r.Alloc("v", math.MaxUint32)
	require.NoError(t, err)

	d, ok := r.Erase(id)
	assert.True(t, ok)
	assert.Equal(t, "v", d)

	_, ok = r.Erase(id)
	assert.False(t, ok)
}

func TestReuse(t *testing.T) {
	r := New[string]()
	for i := 0; i < 5; i++ {
		_, err := r.Alloc("x", math.MaxUint32)
		require.NoError(t, err)
	}

	_, ok := r.Erase(3)
	require.True(t, ok)
	_, ok = r.Erase(1)
	require.True(t, ok)

	for _, want := range []uint32{1, 3, 5} {
		id, err := r.Alloc("y", math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestMarks(t *testing.T) {
	r := newTable(t, initEntries)

	assert.NoError(t, r.SetMark(1, Mark0))
	// idempotent
	assert.NoError(t, r.SetMark(1, Mark0))
	assert.NoError(t, r.SetMark(999, Mark0))
	assert.NoError(t, r.SetMark(999, Mark2))

	assert.ErrorIs(t, r.SetMark(5, Mark0), ErrNotFound)
	assert.ErrorIs(t, r.SetMark(1, NumMarks), ErrNotFound)
	assert.ErrorIs(t, r.ClearMark(5, Mark0), ErrNotFound)

	assert.True(t, r.GetMark(1, Mark0))
	assert.False(t, r.GetMark(0, Mark0))
	assert.False(t, r.GetMark(1, Mark1))
	assert.False(t, r.GetMark(1, NumMarks))

	assert.NoError(t, r.ClearMark(1, Mark0))
	assert.NoError(t, r.ClearMark(1, Mark0))
	assert.False(t, r.GetMark(1, Mark0))

	if diff := cmp.Diff([]uint32{999}, keys(r.IterateMarked(Mark0))); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Equal(t, 0, r.IterateMarked(NumMarks).Len())
}

func TestFindMarked(t *testing.T) {
	cases := map[string]struct {
		marked     []uint32
		start      uint32
		mark       Mark
		expectedID uint32
		expectedOK bool
	}{
		"FirstFromZero": {
			marked:     []uint32{1, 999},
			start:      0,
			mark:       Mark0,
			expectedID: 1,
			expectedOK: true,
		},
		"StartInclusive": {
			marked:     []uint32{1, 999},
			start:      999,
			mark:       Mark0,
			expectedID: 999,
			expectedOK: true,
		},
		"PastLast": {
			marked: []uint32{1, 999},
			start:  1000,
			mark:   Mark0,
		},
		"OtherMark": {
			marked: []uint32{0, 1},
			mark:   Mark1,
		},
		"InvalidMark": {
			marked: []uint32{0},
			mark:   NumMarks,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, initEntries)
			for _, id := range tc.marked {
				require.NoError(t, r.SetMark(id, Mark0))
			}

			e, ok := r.FindMarked(tc.start, tc.mark)
			assert.Equal(t, tc.expectedOK, ok)
			if !tc.expectedOK {
				assert.Nil(t, e)
				return
			}
			assert.Equal(t, tc.expectedID, e.ID())
			assert.Equal(t, initEntries[tc.expectedID], e.Data())
			assert.True(t, e.HasMark(tc.mark))
		})
	}
}

func TestEraseClearsMarks(t *testing.T) {
	r := New[string]()
	id, err := r.Alloc("a", math.MaxUint32)
	require.NoError(t, err)
	require.NoError(t, r.SetMark(id, Mark0))

	_, ok := r.Erase(id)
	require.True(t, ok)

	// reallocated id starts unmarked
	id2, err := r.Alloc("b", math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.False(t, r.GetMark(id2, Mark0))
	_, ok = r.FindMarked(0, Mark0)
	assert.False(t, ok)
}

func TestIterate(t *testing.T) {
	cases := map[string]struct {
		initEntries map[uint32]string
		keys        []uint32
	}{
		"Normal": {
			initEntries: initEntries,
			keys:        []uint32{0, 1, 999},
		},
		"None": {
			keys: []uint32{},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, tc.initEntries)

			it := r.Iterate()
			if diff := cmp.Diff(tc.keys, keys(it)); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			// restartable
			it.Reset()
			if diff := cmp.Diff(tc.keys, keys(it)); diff != "" {
				t.Errorf("%s reset: -want, +got:\n%s", name, diff)
			}

			ids := []uint32{}
			for id, d := range r.All() {
				ids = append(ids, id)
				assert.Equal(t, tc.initEntries[id], d)
			}
			if diff := cmp.Diff(tc.keys, ids); diff != "" {
				t.Errorf("%s all: -want, +got:\n%s", name, diff)
			}
		})
	}
}

func TestIterateSnapshot(t *testing.T) {
	r := newTable(t, initEntries)

	it := r.Iterate()
	_, _ = r.Erase(1)
	require.NoError(t, r.Insert(5, "e"))

	if diff := cmp.Diff([]uint32{0, 1, 999}, keys(it)); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
}

func TestIsConsecutive(t *testing.T) {
	r := newTable(t, initEntries)

	it := r.Iterate()
	got := []bool{}
	for it.Next() {
		got = append(got, it.IsConsecutive())
	}
	if diff := cmp.Diff([]bool{false, true, false}, got); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
}

func TestDestroy(t *testing.T) {
	r := newTable(t, initEntries)
	require.NoError(t, r.SetMark(0, Mark0))

	r.Destroy()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.GetAll())
	_, ok := r.FindMarked(0, Mark0)
	assert.False(t, ok)

	id, err := r.Alloc("a", math.MaxUint32)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), id)
}

func TestScenario(t *testing.T) {
	r := New[string]()

	id, err := r.Alloc("alpha", math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)

	id, err = r.Alloc("beta", math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	require.NoError(t, r.SetMark(0, Mark0))

	e, ok := r.FindMarked(0, Mark0)
	require.True(t, ok)
	assert.Equal(t, uint32(0), e.ID())
	assert.Equal(t, "alpha", e.Data())

	d, ok := r.Erase(0)
	assert.True(t, ok)
	assert.Equal(t, "alpha", d)

	_, ok = r.FindMarked(0, Mark0)
	assert.False(t, ok)

	id, err = r.Alloc("gamma", math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)
}

func TestConcurrentAlloc(t *testing.T) {
	r := New[int]()

	const workers, perWorker = 8, 100
	ids := make(chan uint32, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := r.Alloc(i, math.MaxUint32)
				if err != nil {
					t.Errorf("alloc: %v", err)
					return
				}
				if i%2 == 0 {
					_ = r.SetMark(id, Mark0)
				}
				_, _ = r.FindMarked(0, Mark0)
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint32]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
	}
	assert.Equal(t, workers*perWorker, r.Count())
	// first-fit keeps the allocated ids dense
	assert.Equal(t, workers*perWorker, len(seen))
	assert.True(t, r.IsFree(workers*perWorker))
}

func TestErrorKinds(t *testing.T) {
	r := New[string]()
	_, err := r.Get(1)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrResourceExhausted))
}

func TestAllocMarked(t *testing.T) {
	cases := map[string]struct {
		marks         []Mark
		expectedMarks []Mark
		expectedErr   error
	}{
		"NoMark": {},
		"SingleMark": {
			marks:         []Mark{Mark1},
			expectedMarks: []Mark{Mark1},
		},
		"MultipleMarks": {
			marks:         []Mark{Mark2, Mark0},
			expectedMarks: []Mark{Mark0, Mark2},
		},
		"UndefinedMark": {
			marks:       []Mark{Mark0, NumMarks},
			expectedErr: ErrNotFound,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTable(t, initEntries)

			id, err := r.AllocRange("x", Limit32, tc.marks...)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr))
				assert.Equal(t, len(initEntries), r.Count())
				assert.True(t, r.IsFree(2))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint32(2), id)

			e, ok := r.FindMarked(0, Mark0)
			if tc.expectedMarks == nil || tc.expectedMarks[0] != Mark0 {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, id, e.ID())
			}
			it := r.Iterate()
			for it.Next() {
				if it.ID() == id {
					assert.Equal(t, tc.expectedMarks, it.Entry().Marks())
				}
			}
		})
	}
}

func TestEraseMarked(t *testing.T) {
	r := newTable(t, initEntries)
	require.NoError(t, r.SetMark(1, Mark2))
	require.NoError(t, r.SetMark(999, Mark2))
	require.NoError(t, r.SetMark(999, Mark0))

	e, ok := r.EraseMarked(0, Mark2)
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.ID())
	assert.Equal(t, "b", e.Data())
	assert.Equal(t, []Mark{Mark2}, e.Marks())
	assert.True(t, r.IsFree(1))

	_, ok = r.EraseMarked(1000, Mark2)
	assert.False(t, ok)
	_, ok = r.EraseMarked(0, NumMarks)
	assert.False(t, ok)

	e, ok = r.EraseMarked(2, Mark2)
	require.True(t, ok)
	assert.Equal(t, uint32(999), e.ID())
	assert.Equal(t, []Mark{Mark0, Mark2}, e.Marks())
	_, ok = r.FindMarked(0, Mark0)
	assert.False(t, ok)

	_, ok = r.EraseMarked(0, Mark2)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Count())

	// the erased ids are free again
	id, err := r.Alloc("d", math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
}

// Unmarked entries keep landing on the id a marked entry just left; the
// erase must never take one of them.
func TestConcurrentEraseMarked(t *testing.T) {
	r := New[string]()
	_, err := r.Alloc("marked", 0, Mark0)
	require.NoError(t, err)

	const workers, rounds = 4, 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if _, ok := r.Erase(0); ok {
					_, _ = r.Alloc("plain", 0)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if e, ok := r.EraseMarked(0, Mark0); ok {
					if !e.HasMark(Mark0) || e.Data() != "marked" {
						t.Errorf("erased %s without mark0", e)
					}
					_, _ = r.Alloc("marked", 0, Mark0)
				}
			}
		}()
	}
	wg.Wait()

	if e, ok := r.FindMarked(0, Mark0); ok {
		assert.Equal(t, "marked", e.Data())
	}
}

func TestLimitSize(t *testing.T) {
	cases := map[string]struct {
		limit        Limit
		expectedSize uint64
	}{
		"Single": {
			limit:        LimitTo(0),
			expectedSize: 1,
		},
		"Window": {
			limit:        Limit{Min: 10, Max: 19},
			expectedSize: 10,
		},
		"Full": {
			limit:        Limit32,
			expectedSize: math.MaxUint32 + 1,
		},
		"Inverted": {
			limit:        Limit{Min: 5, Max: 4},
			expectedSize: 0,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expectedSize, tc.limit.Size())
		})
	}
}
