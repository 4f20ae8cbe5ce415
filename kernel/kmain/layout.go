package kmain

import "includeos/kernel/mem"

const (
	// MultibootMagic is the value a multiboot compliant bootloader passes
	// to the kernel entrypoint.
	MultibootMagic = uint32(0x2BADB002)

	// DiagnosticsBase is the address of the diagnostics counter region.
	DiagnosticsBase = uintptr(0x6000)

	// DiagnosticsSize is the size of the diagnostics counter region.
	DiagnosticsSize = mem.Size(0x3000)

	// LowMemoryOffset is the conventional low-memory ceiling. The high
	// memory size reported by the boot probes starts here.
	LowMemoryOffset = uintptr(0x100000)

	// HeapAlignment is the block size the top of the heap is aligned down
	// to.
	HeapAlignment = 64 * mem.Kb

	// StackStart and StackEnd delimit the kernel/service main stack.
	StackStart = uintptr(0xA000)
	StackEnd   = uintptr(0x9FBFF)
)

// Layout holds the fixed memory layout parameters of the platform.
type Layout struct {
	DiagnosticsBase   uintptr
	DiagnosticsSize   mem.Size
	LowMemoryOffset   uintptr
	HeapAlignmentMask uintptr
	StackStart        uintptr
	StackEnd          uintptr
}

// DefaultLayout returns the layout of the reference PC platform.
func DefaultLayout() Layout {
	return Layout{
		DiagnosticsBase:   DiagnosticsBase,
		DiagnosticsSize:   DiagnosticsSize,
		LowMemoryOffset:   LowMemoryOffset,
		HeapAlignmentMask: AlignmentMask(HeapAlignment),
		StackStart:        StackStart,
		StackEnd:          StackEnd,
	}
}

// AlignmentMask returns the mask that aligns an address down to a multiple
// of align, which must be a power of two.
func AlignmentMask(align mem.Size) uintptr {
	return ^(uintptr(align) - 1)
}

// DiagnosticsEnd returns the last address of the diagnostics region.
func (l Layout) DiagnosticsEnd() uintptr {
	return l.DiagnosticsBase + uintptr(l.DiagnosticsSize) - 1
}
