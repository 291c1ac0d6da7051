package xtable

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mark is a boolean tag that can be attached to any occupied id.
type Mark uint8

const (
	Mark0 Mark = iota
	Mark1
	Mark2

	NumMarks
)

func (m Mark) valid() bool { return m < NumMarks }

func (m Mark) String() string { return fmt.Sprintf("mark%d", uint8(m)) }

// ParseMark accepts "0".."2" as well as "mark0".."mark2".
func ParseMark(s string) (Mark, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "mark"), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid mark %q", s)
	}
	if !Mark(n).valid() {
		return 0, fmt.Errorf("mark %q out of range, max %d", s, NumMarks-1)
	}
	return Mark(n), nil
}

// Limit is an inclusive id window used for allocation.
type Limit struct {
	Min uint32
	Max uint32
}

// Limit32 covers the whole 32-bit id space.
var Limit32 = Limit{Min: 0, Max: math.MaxUint32}

func LimitTo(max uint32) Limit { return Limit{Min: 0, Max: max} }

func (r Limit) String() string { return fmt.Sprintf("%d-%d", r.Min, r.Max) }

func (r Limit) Contains(id uint32) bool { return id >= r.Min && id <= r.Max }

// Size returns the number of ids in the window.
func (r Limit) Size() uint64 {
	if r.Max < r.Min {
		return 0
	}
	return uint64(r.Max-r.Min) + 1
}

// ParseLimit parses the "from-to" form, e.g. "0-4095".
func ParseLimit(s string) (Limit, error) {
	var r Limit
	h := strings.IndexByte(s, '-')
	if h == -1 {
		return r, fmt.Errorf("no hyphen in limit %q", s)
	}
	from, to := strings.TrimSpace(s[:h]), strings.TrimSpace(s[h+1:])
	min, err := strconv.ParseUint(from, 10, 32)
	if err != nil {
		return r, fmt.Errorf("invalid min id %q in limit %q", from, s)
	}
	max, err := strconv.ParseUint(to, 10, 32)
	if err != nil {
		return r, fmt.Errorf("invalid max id %q in limit %q", to, s)
	}
	if max < min {
		return r, fmt.Errorf("max id %d is smaller than min id %d in limit %q", max, min, s)
	}
	return Limit{Min: uint32(min), Max: uint32(max)}, nil
}
