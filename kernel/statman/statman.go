// Package statman implements the diagnostics registry: a fixed-capacity table
// of named counters living in a reserved memory region. Counter references
// stay valid for the lifetime of the registry.
package statman

import (
	"fmt"

	"includeos/kernel"
	"includeos/kernel/mem"
)

const (
	// MaxNameLen is the longest counter name that fits in a slot.
	MaxNameLen = 48

	// SlotSize is the number of bytes each counter occupies in the
	// diagnostics region.
	SlotSize = mem.Size(64)
)

// Kind identifies the representation of a counter value.
type Kind uint8

const (
	// UInt64 is an unsigned 64-bit counter.
	UInt64 Kind = iota
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == UInt64 {
		return "uint64"
	}
	return "unknown"
}

var (
	errNotInitialized  = &kernel.Error{Module: "statman", Message: "registry not initialized", Kind: kernel.KindCollaborator}
	errRegistryFull    = &kernel.Error{Module: "statman", Message: "no free counter slots", Kind: kernel.KindCollaborator}
	errInvalidName     = &kernel.Error{Module: "statman", Message: "counter name must be between 1 and 48 bytes", Kind: kernel.KindCollaborator}
	errUnsupportedKind = &kernel.Error{Module: "statman", Message: "unsupported counter kind", Kind: kernel.KindCollaborator}
	errDuplicateName   = &kernel.Error{Module: "statman", Message: "counter already exists", Kind: kernel.KindCollaborator}
)

// Stat is a single named counter.
type Stat struct {
	name  string
	kind  Kind
	value uint64
}

// Name returns the counter name.
func (s *Stat) Name() string { return s.name }

// Kind returns the counter kind.
func (s *Stat) Kind() Kind { return s.kind }

// Uint64 returns a pointer to the counter value. The pointer remains valid
// for the lifetime of the registry.
func (s *Stat) Uint64() *uint64 { return &s.value }

// String renders the counter as "name: value".
func (s *Stat) String() string {
	return fmt.Sprintf("%s: %d", s.name, s.value)
}

// Registry is the diagnostics counter table.
type Registry struct {
	base  uintptr
	size  mem.Size
	slots []Stat
	used  int
}

// Init prepares the registry to hold size/SlotSize counters in the region
// starting at base. Calling Init again discards all counters.
func (r *Registry) Init(base uintptr, size mem.Size) {
	r.base = base
	r.size = size
	r.slots = make([]Stat, size/SlotSize)
	r.used = 0
}

// Initialized returns true once Init has been called.
func (r *Registry) Initialized() bool {
	return r.slots != nil
}

// Base returns the start address of the diagnostics region.
func (r *Registry) Base() uintptr { return r.base }

// Size returns the size of the diagnostics region.
func (r *Registry) Size() mem.Size { return r.size }

// Capacity returns the maximum number of counters.
func (r *Registry) Capacity() int { return len(r.slots) }

// Len returns the number of created counters.
func (r *Registry) Len() int { return r.used }

// Create allocates a new counter with the given kind and name.
func (r *Registry) Create(kind Kind, name string) (*Stat, *kernel.Error) {
	switch {
	case r.slots == nil:
		return nil, errNotInitialized
	case kind != UInt64:
		return nil, errUnsupportedKind
	case len(name) == 0 || len(name) > MaxNameLen:
		return nil, errInvalidName
	case r.Get(name) != nil:
		return nil, errDuplicateName
	case r.used == len(r.slots):
		return nil, errRegistryFull
	}

	stat := &r.slots[r.used]
	stat.name, stat.kind, stat.value = name, kind, 0
	r.used++
	return stat, nil
}

// Get looks up a counter by name. It returns nil if no such counter exists.
func (r *Registry) Get(name string) *Stat {
	for i := 0; i < r.used; i++ {
		if r.slots[i].name == name {
			return &r.slots[i]
		}
	}
	return nil
}

// Visit invokes fn for each counter in creation order.
func (r *Registry) Visit(fn func(*Stat)) {
	for i := 0; i < r.used; i++ {
		fn(&r.slots[i])
	}
}
