// Package memmap implements the registry of labeled physical address ranges
// that make up the kernel memory map.
package memmap

import (
	"fmt"
	"strings"

	"includeos/kernel"
	"includeos/kernel/mem"
)

var (
	errInvertedRange    = &kernel.Error{Module: "memmap", Message: "range start is above range end"}
	errOverlappingRange = &kernel.Error{Module: "memmap", Message: "range overlaps a previously assigned range"}
)

// UsageFn reports how many bytes of a range are currently in use.
type UsageFn func() mem.Size

// Range describes an inclusive address range [Start, End].
type Range struct {
	Start, End  uintptr
	Category    string
	Description string

	// Usage is optional.
	Usage UsageFn
}

// Size returns the number of bytes covered by the range.
func (r Range) Size() mem.Size {
	return mem.Size(r.End-r.Start) + 1
}

// Overlaps returns true if r and other share at least one address.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// String renders the range as a single memory map line.
func (r Range) String() string {
	str := fmt.Sprintf("0x%08x - 0x%08x %s (%s)", r.Start, r.End, r.Category, r.Description)
	if r.Usage != nil {
		str += fmt.Sprintf(" [%s / %s]", r.Usage(), r.Size())
	}
	return str
}

// Map is an ordered set of non-overlapping ranges. The kernel owns a single
// Map which is populated by the boot sequence and read-mostly afterwards; it
// is not safe for concurrent mutation.
type Map struct {
	ranges []Range
}

// AssignRange registers r. It fails with a fatal error if r is inverted or if
// it overlaps any range assigned earlier.
func (m *Map) AssignRange(r Range) *kernel.Error {
	if r.Start > r.End {
		return withRange(errInvertedRange, r)
	}

	for _, existing := range m.ranges {
		if existing.Overlaps(r) {
			return withRange(errOverlappingRange, r)
		}
	}

	m.ranges = append(m.ranges, r)
	return nil
}

// Ranges returns the assigned ranges in assignment order.
func (m *Map) Ranges() []Range {
	out := make([]Range, len(m.ranges))
	copy(out, m.ranges)
	return out
}

// Len returns the number of assigned ranges.
func (m *Map) Len() int {
	return len(m.ranges)
}

// Find returns the first range whose category matches.
func (m *Map) Find(category string) (Range, bool) {
	for _, r := range m.ranges {
		if r.Category == category {
			return r, true
		}
	}
	return Range{}, false
}

// Verify re-checks the invariants of every assigned range.
func (m *Map) Verify() *kernel.Error {
	for i, r := range m.ranges {
		if r.Start > r.End {
			return withRange(errInvertedRange, r)
		}
		for _, other := range m.ranges[i+1:] {
			if r.Overlaps(other) {
				return withRange(errOverlappingRange, other)
			}
		}
	}
	return nil
}

// withRange returns a copy of err whose message names the offending range so
// the global error values are never mutated.
func withRange(err *kernel.Error, r Range) *kernel.Error {
	return &kernel.Error{
		Module:  err.Module,
		Message: fmt.Sprintf("%s: %s [0x%x, 0x%x]", err.Message, r.Category, r.Start, r.End),
		Kind:    err.Kind,
	}
}

// IsInverted returns true if err was raised for a range with start > end.
func IsInverted(err *kernel.Error) bool {
	return err != nil && err.Module == errInvertedRange.Module && strings.HasPrefix(err.Message, errInvertedRange.Message)
}

// IsOverlap returns true if err was raised for an overlapping range.
func IsOverlap(err *kernel.Error) bool {
	return err != nil && err.Module == errOverlappingRange.Module && strings.HasPrefix(err.Message, errOverlappingRange.Message)
}
