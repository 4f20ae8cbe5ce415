package kmain

import (
	"time"

	"includeos/kernel/statman"
)

// LoopState describes what the event loop is doing.
type LoopState uint8

const (
	// StateIdle means the CPU is halted waiting for an interrupt.
	StateIdle LoopState = iota

	// StateProcessingInterrupts means pending interrupts are being
	// dispatched to their handlers.
	StateProcessingInterrupts

	// StatePoweringDown is terminal: the service has been stopped and the
	// platform is turning the machine off.
	StatePoweringDown
)

// String implements fmt.Stringer.
func (s LoopState) String() string {
	switch s {
	case StateProcessingInterrupts:
		return "processing-interrupts"
	case StatePoweringDown:
		return "powering-down"
	default:
		return "idle"
	}
}

// EventLoop services interrupts until Shutdown is requested, then stops the
// hosted service and powers the platform off. It must be entered once, after
// Start has returned, and never recursively.
func (k *Kernel) EventLoop() {
	k.process()
	for k.power {
		k.Halt()
		k.process()
	}

	k.state = StatePoweringDown
	k.log.Info().Msgf("Stopping service %q", k.service.Name())
	k.service.Stop()

	k.log.Info().Msg("Powering off")
	k.platform.PowerOff()
}

func (k *Kernel) process() {
	k.state = StateProcessingInterrupts
	k.processInterruptsFn()
}

// Halt puts the CPU to sleep until the next interrupt arrives and adds the
// cycles spent waiting to the halted-cycles counter. The wait has no timeout.
//
// Halting before the idle counters have been registered is a violation of
// the boot ordering and panics the kernel.
func (k *Kernel) Halt() {
	if k.cyclesHalted == nil || k.cyclesTotal == nil {
		panicFn(errHaltBeforeCounters)
		return
	}

	k.state = StateIdle
	*k.cyclesTotal = k.cycles()
	k.waitForInterruptFn()
	*k.cyclesHalted += k.cycles() - *k.cyclesTotal
}

// Shutdown asks the event loop to exit after the current iteration. It must
// be called from the kernel's control flow, typically an interrupt handler.
func (k *Kernel) Shutdown() {
	k.power = false
}

// IsRunning returns true from the end of boot until Shutdown is called.
func (k *Kernel) IsRunning() bool {
	return k.power
}

// IsBooted returns true once the boot sequence has completed.
func (k *Kernel) IsBooted() bool {
	return k.booted
}

// State returns the current event loop state.
func (k *Kernel) State() LoopState {
	return k.state
}

// CyclesHalted returns the number of cycles the CPU has spent halted.
func (k *Kernel) CyclesHalted() uint64 {
	if k.cyclesHalted == nil {
		return 0
	}
	return *k.cyclesHalted
}

// CyclesTotal returns the cycle counter value sampled at the last halt.
func (k *Kernel) CyclesTotal() uint64 {
	if k.cyclesTotal == nil {
		return 0
	}
	return *k.cyclesTotal
}

// MicrosSinceBoot returns the number of microseconds elapsed since the clock
// was initialized.
func (k *Kernel) MicrosSinceBoot() int64 {
	return k.clock.MicrosSinceBoot()
}

// Uptime returns the time elapsed since the clock was initialized.
func (k *Kernel) Uptime() time.Duration {
	return k.clock.TimeSinceBoot()
}

// BootTimestamp returns the wall clock time at which the kernel booted.
func (k *Kernel) BootTimestamp() time.Time {
	return k.clock.BootTimestamp()
}

// Stats returns the diagnostics registry.
func (k *Kernel) Stats() *statman.Registry {
	return &k.stats
}
