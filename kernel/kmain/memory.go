package kmain

import (
	"includeos/kernel"
	"includeos/kernel/mem"
	"includeos/kernel/mem/memmap"
)

// assignMemoryRanges registers the boot memory map. Ranges are assigned in
// physical layout order: diagnostics, stack, image, pre-heap gap and heap.
// Any range rejected by the memory map is fatal.
func (k *Kernel) assignMemoryRanges() *kernel.Error {
	k.memoryEnd = uintptr(k.boot.HighMemorySize) + k.layout.LowMemoryOffset
	k.log.Info().Msgf("Assigning fixed memory ranges (memory end: 0x%x)", k.memoryEnd)

	imageStart, imageEnd := k.platform.ImageBounds()

	for _, r := range []memmap.Range{
		{
			Start:       k.layout.DiagnosticsBase,
			End:         k.layout.DiagnosticsEnd(),
			Category:    "Statman",
			Description: "Statistics",
		},
		{
			Start:       k.layout.StackStart,
			End:         k.layout.StackEnd,
			Category:    "Stack",
			Description: "Kernel / service main stack",
		},
		{
			Start:       imageStart,
			End:         imageEnd,
			Category:    "ELF",
			Description: "Your service binary including OS",
		},
	} {
		if err := k.memmap.AssignRange(r); err != nil {
			return err
		}
	}

	k.heap.Start = k.platform.HeapBegin()
	k.heap.Max = k.computeHeapMax()
	if k.heap.Start == 0 || k.heap.Max == 0 {
		return errZeroHeapBounds
	}

	if k.heap.Start > imageEnd+1 {
		gap := memmap.Range{
			Start:       imageEnd + 1,
			End:         k.heap.Start - 1,
			Category:    "Pre-heap",
			Description: "Heap randomization area",
		}
		if err := k.memmap.AssignRange(gap); err != nil {
			return err
		}
	}

	k.heap.RangeMax = min(k.heap.Max, maxSpan)
	heap := memmap.Range{
		Start:       k.heap.Start,
		End:         k.heap.RangeMax,
		Category:    "Heap",
		Description: "Dynamic memory",
		Usage:       k.platform.HeapUsage,
	}
	if err := k.memmap.AssignRange(heap); err != nil {
		return err
	}

	k.log.Info().Msgf("Heap: 0x%x - 0x%x (%s)", heap.Start, heap.End, heap.Size())
	return nil
}

// computeHeapMax returns the last address of physical memory aligned down to
// the heap block size, or 0 if no memory lies above the alignment boundary.
func (k *Kernel) computeHeapMax() uintptr {
	top := mem.AlignDown(k.layout.LowMemoryOffset+uintptr(k.boot.HighMemorySize), k.layout.HeapAlignmentMask)
	if top == 0 {
		return 0
	}
	return top - 1
}

// MemoryMap returns the ranges assigned during boot in assignment order.
func (k *Kernel) MemoryMap() []memmap.Range {
	return k.memmap.Ranges()
}

// MemoryEnd returns the end of physical memory computed during boot.
func (k *Kernel) MemoryEnd() uintptr {
	return k.memoryEnd
}

// HeapMax returns the last address usable by the heap.
func (k *Kernel) HeapMax() uintptr {
	return k.heap.Max
}

// Heap returns the heap bounds computed during boot.
func (k *Kernel) Heap() HeapBounds {
	return k.heap
}

// HighMemorySize returns the amount of memory above the low-memory ceiling
// detected during boot.
func (k *Kernel) HighMemorySize() mem.Size {
	return k.boot.HighMemorySize
}

// BootContext returns the boot handoff values.
func (k *Kernel) BootContext() BootContext {
	return k.boot
}

// BootMemoryMap runs the boot stages that establish the memory map without
// touching the platform devices, the clocks or the hosted service. It is
// used by tooling that inspects the layout of a platform.
func (k *Kernel) BootMemoryMap(bootMagic, bootAddr uint32) *kernel.Error {
	if k.started {
		return errAlreadyStarted
	}
	k.started = true

	k.initDiagnostics()
	if err := k.detectBootType(bootMagic, bootAddr); err != nil {
		return err
	}
	return k.assignMemoryRanges()
}
