package draw

import (
	"errors"
	"fmt"
)

const (
	MinValue = 1
	MaxValue = 90

	// Capacity is the number of distinct values a session can draw.
	Capacity = MaxValue - MinValue + 1
)

var (
	ErrExhausted  = errors.New("draw space exhausted")
	ErrOutOfRange = errors.New("value out of range")
	ErrDuplicate  = errors.New("value already drawn")
)

// Set records which values of [MinValue, MaxValue] have been drawn in the
// current session, in the order they were accepted.
type Set struct {
	drawn [MaxValue + 1]bool
	order []int
}

func NewSet() *Set {
	return &Set{order: make([]int, 0, Capacity)}
}

func InRange(v int) bool {
	return v >= MinValue && v <= MaxValue
}

func (s *Set) Has(v int) bool {
	return InRange(v) && s.drawn[v]
}

// Mark records v as drawn and returns the new draw count.
func (s *Set) Mark(v int) (int, error) {
	if !InRange(v) {
		return len(s.order), fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	if s.drawn[v] {
		return len(s.order), fmt.Errorf("%w: %d", ErrDuplicate, v)
	}
	s.drawn[v] = true
	s.order = append(s.order, v)
	return len(s.order), nil
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Remaining() int { return Capacity - len(s.order) }

func (s *Set) Full() bool { return len(s.order) >= Capacity }

// Values returns the drawn values in draw order. The slice is a copy.
func (s *Set) Values() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// nthUndrawn returns the n-th (zero based) value not yet drawn, in
// ascending order.
func (s *Set) nthUndrawn(n int) (int, bool) {
	for v := MinValue; v <= MaxValue; v++ {
		if s.drawn[v] {
			continue
		}
		if n == 0 {
			return v, true
		}
		n--
	}
	return 0, false
}
