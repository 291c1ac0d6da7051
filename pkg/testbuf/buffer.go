// Package testbuf holds the last written byte buffer per open session and
// serves it back from a per-session read cursor.
package testbuf

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

const DefaultLimit = 4096

// ErrRange is returned when a write exceeds the buffer limit.
var ErrRange = errors.New("result out of range")

type Buffer struct {
	m     sync.Mutex
	limit int
	data  []byte
	pos   int
}

func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Buffer{limit: limit}
}

// Write replaces the buffer contents with p and rewinds the read cursor.
func (r *Buffer) Write(p []byte) (int, error) {
	if len(p) > r.limit {
		return 0, fmt.Errorf("write of %d bytes exceeds limit %d: %w", len(p), r.limit, ErrRange)
	}
	r.m.Lock()
	defer r.m.Unlock()

	r.data = append(r.data[:0:0], p...)
	r.pos = 0
	return len(p), nil
}

func (r *Buffer) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()

	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// Len returns the number of unread bytes.
func (r *Buffer) Len() int {
	r.m.Lock()
	defer r.m.Unlock()

	return len(r.data) - r.pos
}

func (r *Buffer) Limit() int { return r.limit }
