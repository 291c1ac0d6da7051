package testbuf

import (
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Sessions tracks one Buffer per open session.
type Sessions struct {
	limit   int
	buffers cmap.ConcurrentMap[string, *Buffer]
}

func NewSessions(limit int) *Sessions {
	return &Sessions{
		limit:   limit,
		buffers: cmap.New[*Buffer](),
	}
}

// Open creates an empty buffer and returns its session id.
func (s *Sessions) Open() string {
	id := uuid.NewString()
	s.buffers.Set(id, NewBuffer(s.limit))
	return id
}

func (s *Sessions) Get(id string) (*Buffer, bool) {
	return s.buffers.Get(id)
}

// Release drops the session, reporting whether it existed.
func (s *Sessions) Release(id string) bool {
	_, ok := s.buffers.Pop(id)
	return ok
}

func (s *Sessions) Count() int {
	return s.buffers.Count()
}

// Clear releases every session.
func (s *Sessions) Clear() {
	s.buffers.Clear()
}
