package hal

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"includeos/kernel/irq"
	"includeos/kernel/kfmt"
	"includeos/kernel/mem"

	"golang.org/x/sys/unix"
)

const (
	// DefaultImageStart is the address the hosted kernel image is assumed
	// to be loaded at.
	DefaultImageStart = uintptr(0x200000)

	// DefaultPreHeapGap is the size of the randomization area between the
	// kernel image and the heap.
	DefaultPreHeapGap = 4 * mem.Mb

	// ResumeBase is the address of the soft-reset resume area.
	ResumeBase = uint32(0x1000)

	// resumeAreaSize is the size of the soft-reset resume area.
	resumeAreaSize = 0x1000

	// lowMemory is the size of the memory below the high-memory region.
	lowMemory = mem.Mb
)

var (
	// The following functions are mocked by tests.
	sysinfoFn        = unix.Sysinfo
	getrandomFn      = unix.Getrandom
	getpidFn         = os.Getpid
	rebootFn         = unix.Reboot
	exitFn           = os.Exit
	executableSizeFn = executableSize
)

// Hosted is the platform used when the kernel runs as the only program of a
// Linux (micro)VM guest or as a regular host process. Memory is probed via
// sysinfo(2), entropy comes from getrandom(2) and SIGINT/SIGTERM act as the
// power button.
type Hosted struct {
	// MemoryOverride, if non-zero, replaces the probed amount of RAM.
	MemoryOverride mem.Size

	// ImageStart is the load address of the kernel image.
	ImageStart uintptr

	// PreHeapGap is the size of the randomization area before the heap.
	PreHeapGap mem.Size

	resume  [resumeAreaSize]byte
	signals chan os.Signal
}

// NewHosted returns a hosted platform with the default image layout.
func NewHosted() *Hosted {
	return &Hosted{
		ImageStart: DefaultImageStart,
		PreHeapGap: DefaultPreHeapGap,
	}
}

// Multiboot probes memory for a multiboot-style handoff. A hosted kernel has
// no bootloader information block, so the probe falls back to the memory
// reported by the host kernel.
func (h *Hosted) Multiboot(_ uint32) mem.Size {
	return h.highMemory()
}

// LegacyBoot probes the memory reported by the host kernel.
func (h *Hosted) LegacyBoot() mem.Size {
	return h.highMemory()
}

func (h *Hosted) highMemory() mem.Size {
	total := h.MemoryOverride
	if total == 0 {
		var info unix.Sysinfo_t
		if err := sysinfoFn(&info); err != nil {
			log := kfmt.Logger("hal")
			log.Error().Err(err).Msg("sysinfo failed")
			return 0
		}
		total = mem.Size(uint64(info.Totalram) * uint64(info.Unit))
	}

	if total <= lowMemory {
		return 0
	}
	return total - lowMemory
}

// ReadResume returns the resume area if addr points to it.
func (h *Hosted) ReadResume(addr uint32) []byte {
	if addr < ResumeBase || addr >= ResumeBase+resumeAreaSize {
		return nil
	}
	return h.resume[addr-ResumeBase:]
}

// StoreResume copies record into the resume area.
func (h *Hosted) StoreResume(record []byte) (uint32, bool) {
	if len(record) > resumeAreaSize {
		return 0, false
	}
	copy(h.resume[:], record)
	return ResumeBase, true
}

// ImageBounds returns the notional placement of the running executable.
func (h *Hosted) ImageBounds() (uintptr, uintptr) {
	size := executableSizeFn()
	if size == 0 {
		size = mem.PageSize
	}
	return h.ImageStart, h.ImageStart + mem.AlignUp(uintptr(size), uintptr(mem.PageSize)) - 1
}

// HeapBegin returns the page following the pre-heap gap.
func (h *Hosted) HeapBegin() uintptr {
	_, end := h.ImageBounds()
	return mem.AlignUp(end+1+uintptr(h.PreHeapGap), uintptr(mem.PageSize))
}

// HeapUsage reports the bytes of heap in use by the Go runtime.
func (h *Hosted) HeapUsage() mem.Size {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return mem.Size(stats.HeapInuse)
}

// Init probes the hosted devices and forwards SIGINT/SIGTERM to the power
// button IRQ line.
func (h *Hosted) Init(irqs *irq.Manager) {
	DetectHardware()

	h.signals = make(chan os.Signal, 1)
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	go func(ch <-chan os.Signal) {
		for range ch {
			irqs.Raise(irq.PowerButtonLine)
		}
	}(h.signals)
}

// Entropy fills p using getrandom(2).
func (h *Hosted) Entropy(p []byte) error {
	for len(p) > 0 {
		n, err := getrandomFn(p, 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

// PowerOff powers the VM off when running as PID 1 and exits the process
// otherwise.
func (h *Hosted) PowerOff() {
	if h.signals != nil {
		signal.Stop(h.signals)
		close(h.signals)
		h.signals = nil
	}

	if getpidFn() == 1 {
		unix.Sync()
		if err := rebootFn(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
			log := kfmt.Logger("hal")
			log.Error().Err(err).Msg("power off failed")
		}
	}

	exitFn(0)
}

func executableSize() mem.Size {
	path, err := os.Executable()
	if err != nil {
		return 0
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return mem.Size(info.Size())
}
