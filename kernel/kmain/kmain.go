// Package kmain contains the kernel boot sequence and the idle/event loop.
//
// The kernel assumes a single core: the boot sequence, the plugin
// initializers, the hosted service and every interrupt handler run on one
// control flow, so the Kernel state is not guarded by any lock. Running a
// Kernel from more than one goroutine at a time is not supported.
package kmain

import (
	"math/rand/v2"

	"includeos/kernel"
	"includeos/kernel/cpu"
	"includeos/kernel/hal"
	"includeos/kernel/irq"
	"includeos/kernel/kfmt"
	"includeos/kernel/mem"
	"includeos/kernel/mem/memmap"
	"includeos/kernel/plugin"
	"includeos/kernel/rng"
	"includeos/kernel/rtc"
	"includeos/kernel/service"
	"includeos/kernel/softreset"
	"includeos/kernel/statman"

	"github.com/rs/zerolog"
)

// Version is the kernel version printed in the boot banner.
var Version = "v0.12.0-hosted"

// Names of the counters registered by the boot sequence.
const (
	CounterCyclesHalted = "cpu0.cycles_hlt"
	CounterCyclesTotal  = "cpu0.cycles_total"
	CounterIRQUnhandled = "irq.unhandled"
)

// BootType describes how the kernel was handed control.
type BootType uint8

const (
	// BootLegacy means no recognized boot magic was supplied.
	BootLegacy BootType = iota

	// BootMultiboot means a multiboot compliant bootloader started the
	// kernel.
	BootMultiboot

	// BootSoftReset means a previous run restarted the kernel and left a
	// resume record behind.
	BootSoftReset
)

// String implements fmt.Stringer.
func (t BootType) String() string {
	switch t {
	case BootMultiboot:
		return "multiboot"
	case BootSoftReset:
		return "soft-reset"
	default:
		return "legacy"
	}
}

// BootContext holds the boot handoff values and what was derived from them.
type BootContext struct {
	Magic          uint32
	Address        uint32
	Type           BootType
	HighMemorySize mem.Size
}

// HeapBounds describes the heap computed by the boot sequence.
type HeapBounds struct {
	// Start is the first address of the heap.
	Start uintptr

	// Max is the last address of physical memory usable by the heap.
	Max uintptr

	// RangeMax is Max clamped to the largest representable address span.
	RangeMax uintptr
}

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	// maxSpan is mocked by tests.
	maxSpan = mem.MaxSpan

	errAlreadyStarted     = &kernel.Error{Module: "Kernel", Message: "boot sequence started twice"}
	errZeroHighMemory     = &kernel.Error{Module: "Kernel", Message: "high memory size is zero after boot detection"}
	errZeroHeapBounds     = &kernel.Error{Module: "Kernel", Message: "heap start or heap max is zero"}
	errHaltBeforeCounters = &kernel.Error{Module: "Kernel", Message: "halt requested before idle counters were registered"}
	errResumeStore        = &kernel.Error{Module: "Kernel", Message: "platform cannot store soft-reset record", Kind: kernel.KindCollaborator}
)

// Config carries the boot-time parameters of a Kernel.
type Config struct {
	Layout Layout

	// Plugins are initialized in order at the end of the boot sequence.
	Plugins []plugin.Entry

	// Cycles and CPUFreqMHz describe the cycle counter. They default to
	// cpu.Cycles and cpu.FrequencyMHz.
	Cycles     rtc.CycleFn
	CPUFreqMHz uint64
}

// Kernel is the boot/runtime context shared by the boot sequence and the
// event loop.
type Kernel struct {
	platform hal.Platform
	service  service.Service
	layout   Layout
	plugins  []plugin.Entry
	cycles   rtc.CycleFn
	cpuFreq  uint64

	boot      BootContext
	memoryEnd uintptr
	heap      HeapBounds
	memmap    memmap.Map
	stats     statman.Registry
	irqs      *irq.Manager
	clock     rtc.Clock
	rng       rng.Generator

	cyclesHalted  *uint64
	cyclesTotal   *uint64
	pluginResults []plugin.Result
	liveUpdateLoc uint64

	started bool
	booted  bool
	power   bool
	state   LoopState

	processInterruptsFn func()
	waitForInterruptFn  func()

	log zerolog.Logger
}

// New returns a kernel that boots on platform and hosts svc.
func New(platform hal.Platform, svc service.Service, cfg Config) *Kernel {
	if cfg.Cycles == nil {
		cfg.Cycles = cpu.Cycles
	}
	if cfg.CPUFreqMHz == 0 {
		cfg.CPUFreqMHz = cpu.FrequencyMHz
	}

	k := &Kernel{
		platform: platform,
		service:  svc,
		layout:   cfg.Layout,
		plugins:  cfg.Plugins,
		cycles:   cfg.Cycles,
		cpuFreq:  cfg.CPUFreqMHz,
		irqs:     irq.NewManager(),
		log:      kfmt.Logger("Kernel"),
	}
	k.processInterruptsFn = k.irqs.ProcessInterrupts
	k.waitForInterruptFn = k.irqs.WaitForInterrupt
	return k
}

// Start runs the boot sequence and hands control to the hosted service. It
// must be called exactly once, before any interrupt is dispatched. Start
// returns when the service's Start returns; the caller is then expected to
// enter EventLoop.
func (k *Kernel) Start(bootMagic, bootAddr uint32) {
	if k.started {
		panicFn(errAlreadyStarted)
		return
	}
	k.started = true

	kfmt.Printf("#include<os> // Literally\n")
	k.log.Info().Msgf("Boot magic: 0x%x, addr: 0x%x", bootMagic, bootAddr)

	k.initDiagnostics()

	var err *kernel.Error
	if err = k.detectBootType(bootMagic, bootAddr); err != nil {
		panicFn(err)
		return
	} else if err = k.assignMemoryRanges(); err != nil {
		panicFn(err)
		return
	} else if err = k.registerIdleCounters(); err != nil {
		panicFn(err)
		return
	}

	k.log.Info().Msg("Initializing platform")
	k.platform.Init(k.irqs)

	k.initClockAndEntropy()

	// The boot sequence is over once plugins start running.
	k.booted = true
	k.power = true

	k.log.Info().Msg("Initializing plugins")
	k.pluginResults = plugin.Run(k.plugins, kfmt.Logger("plugin"))

	k.printBootReport()
	k.service.Start()

	// Must run after the service has started.
	k.sanityChecks()
}

// initDiagnostics prepares the diagnostics registry. It runs before
// anything else and cannot fail.
func (k *Kernel) initDiagnostics() {
	k.stats.Init(k.layout.DiagnosticsBase, k.layout.DiagnosticsSize)
}

// detectBootType probes the amount of high memory using the boot path
// selected by bootMagic. A soft reset restores the previous session and then
// also runs the legacy probe.
func (k *Kernel) detectBootType(bootMagic, bootAddr uint32) *kernel.Error {
	k.boot = BootContext{Magic: bootMagic, Address: bootAddr, Type: BootLegacy}

	if bootMagic == MultibootMagic {
		k.boot.Type = BootMultiboot
		k.boot.HighMemorySize = k.platform.Multiboot(bootAddr)
	} else {
		if softreset.IsMagic(bootMagic) && bootAddr != 0 {
			k.boot.Type = BootSoftReset
			k.resumeSoftReset(bootAddr)
		}

		k.boot.HighMemorySize = k.platform.LegacyBoot()
	}

	k.log.Info().Msgf("Boot type: %s, high memory: %s", k.boot.Type, k.boot.HighMemorySize)
	if k.boot.HighMemorySize == 0 {
		return errZeroHighMemory
	}
	return nil
}

// resumeSoftReset restores the session state stored by the previous run. A
// missing or corrupt record is ignored.
func (k *Kernel) resumeSoftReset(addr uint32) {
	rec, err := softreset.Decode(k.platform.ReadResume(addr))
	if err != nil {
		k.log.Warn().Msgf("Ignoring soft-reset record at 0x%x: %s", addr, err.Message)
		return
	}

	if rec.CPUFreqMHz != 0 {
		k.cpuFreq = uint64(rec.CPUFreqMHz)
	}
	k.liveUpdateLoc = rec.LiveUpdateLoc
	k.log.Info().Msgf("Resumed soft-reset session (live update at 0x%x)", rec.LiveUpdateLoc)
}

// registerIdleCounters creates the counters updated by Halt. No code path
// that may halt the CPU can run before this stage.
func (k *Kernel) registerIdleCounters() *kernel.Error {
	for _, counter := range []struct {
		name string
		dst  **uint64
	}{
		{CounterCyclesHalted, &k.cyclesHalted},
		{CounterCyclesTotal, &k.cyclesTotal},
	} {
		stat, err := k.stats.Create(statman.UInt64, counter.name)
		if err != nil {
			return asFatal(err)
		}
		*counter.dst = stat.Uint64()
	}

	if stat, err := k.stats.Create(statman.UInt64, CounterIRQUnhandled); err == nil {
		k.irqs.SetUnhandledCounter(stat.Uint64())
	}
	return nil
}

// initClockAndEntropy starts the clocks and seeds the pseudo-random
// generator. Failures are handled by the clock and entropy packages.
func (k *Kernel) initClockAndEntropy() {
	k.clock.Init(k.cycles, k.cpuFreq)

	k.log.Info().Msg("Initializing RNG")
	k.rng.Init(k.platform.Entropy)
	k.rng.Seed(k.rng.ExtractUint32())
}

// asFatal returns a fatal copy of err.
func asFatal(err *kernel.Error) *kernel.Error {
	return &kernel.Error{Module: err.Module, Message: err.Message, Kind: kernel.KindFatal}
}

// Rand returns the pseudo-random generator seeded during boot.
func (k *Kernel) Rand() *rand.Rand {
	return k.rng.Rand()
}

// PluginResults returns the outcome of every plugin initializer run during
// boot.
func (k *Kernel) PluginResults() []plugin.Result {
	return k.pluginResults
}

// IRQs returns the interrupt manager used by the event loop.
func (k *Kernel) IRQs() *irq.Manager {
	return k.irqs
}
