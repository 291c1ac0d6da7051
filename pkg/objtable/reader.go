package objtable

import (
	"bytes"
	"fmt"
	"io"
)

// Reader renders a snapshot of items one line at a time. Each line is only
// formatted once the previous one has been fully consumed.
type Reader struct {
	items []Item
	next  int
	buf   bytes.Buffer
}

func newReader(items []Item) *Reader {
	return &Reader{items: items}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.buf.Len() == 0 {
		if r.next >= len(r.items) {
			return 0, io.EOF
		}
		r.fill(r.items[r.next])
		r.next++
	}
	return r.buf.Read(p)
}

func (r *Reader) fill(item Item) {
	r.buf.Reset()
	fmt.Fprintf(&r.buf, "%d: %q", item.ID, item.Object.Payload)
	if len(item.Object.Labels) > 0 {
		fmt.Fprintf(&r.buf, " [%s]", item.Object.Labels.String())
	}
	if len(item.Marks) > 0 {
		fmt.Fprintf(&r.buf, " marks=%v", item.Marks)
	}
	r.buf.WriteByte('\n')
}
