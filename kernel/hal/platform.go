package hal

import (
	"includeos/kernel/irq"
	"includeos/kernel/mem"
)

// Platform is implemented by the board support code the kernel boots on. All
// methods are invoked from the boot sequence or the idle loop on the
// kernel's single control flow.
type Platform interface {
	// Multiboot probes the memory above the low-memory ceiling using the
	// multiboot information block at bootAddr.
	Multiboot(bootAddr uint32) mem.Size

	// LegacyBoot probes the memory above the low-memory ceiling without
	// bootloader assistance.
	LegacyBoot() mem.Size

	// ReadResume returns the soft-reset resume area located at addr or nil
	// if addr does not point to one.
	ReadResume(addr uint32) []byte

	// StoreResume saves a soft-reset resume record and returns the address
	// to hand to the next boot.
	StoreResume(record []byte) (uint32, bool)

	// ImageBounds returns the first and last address of the loaded kernel
	// image.
	ImageBounds() (start, end uintptr)

	// HeapBegin returns the first address available to the heap.
	HeapBegin() uintptr

	// HeapUsage reports the number of heap bytes in use.
	HeapUsage() mem.Size

	// Init runs the platform specific initialization. Interrupt sources
	// owned by the platform raise their lines on irqs. Failure handling
	// is up to the implementation.
	Init(irqs *irq.Manager)

	// Entropy fills p with random bytes.
	Entropy(p []byte) error

	// PowerOff turns the machine off. It does not return on real
	// hardware.
	PowerOff()
}
