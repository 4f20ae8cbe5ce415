// Package irq implements the interrupt manager used by the idle loop.
//
// Interrupt sources (timers, signal forwarders, device emulation) may call
// Raise from any goroutine. Handlers always run on the kernel's main flow
// from within ProcessInterrupts, so kernel state touched by handlers keeps a
// single writer.
package irq

import (
	"math/bits"
	"sync/atomic"

	"includeos/kernel"
)

// Line identifies an interrupt request line.
type Line uint8

// MaxLines is the number of supported IRQ lines.
const MaxLines = 64

const (
	// TimerLine is raised by the periodic timer.
	TimerLine = Line(0)

	// PowerButtonLine is raised when the platform asks the kernel to shut
	// down.
	PowerButtonLine = Line(9)
)

// Handler services an interrupt raised on a particular line.
type Handler func(Line)

var (
	errInvalidLine    = &kernel.Error{Module: "irq", Message: "invalid IRQ line", Kind: kernel.KindCollaborator}
	errHandlerPresent = &kernel.Error{Module: "irq", Message: "IRQ line already has a handler", Kind: kernel.KindCollaborator}
)

// Manager tracks pending interrupts and dispatches them to the registered
// handlers.
type Manager struct {
	handlers [MaxLines]Handler
	pending  atomic.Uint64
	wake     chan struct{}

	// unhandled, if set, is incremented for every dispatched interrupt
	// that has no handler.
	unhandled *uint64
}

// NewManager returns a Manager with no handlers installed.
func NewManager() *Manager {
	return &Manager{wake: make(chan struct{}, 1)}
}

// HandleIRQ installs handler for line. Passing a nil handler removes any
// installed handler.
func (m *Manager) HandleIRQ(line Line, handler Handler) *kernel.Error {
	if line >= MaxLines {
		return errInvalidLine
	}

	if handler != nil && m.handlers[line] != nil {
		return errHandlerPresent
	}

	m.handlers[line] = handler
	return nil
}

// SetUnhandledCounter attaches a diagnostics counter that tracks interrupts
// raised on lines without a handler.
func (m *Manager) SetUnhandledCounter(counter *uint64) {
	m.unhandled = counter
}

// Raise marks line as pending and wakes up a CPU blocked in
// WaitForInterrupt. It is safe to call Raise from any goroutine.
func (m *Manager) Raise(line Line) {
	if line >= MaxLines {
		return
	}

	m.pending.Or(1 << line)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Pending returns true if at least one interrupt awaits dispatching.
func (m *Manager) Pending() bool {
	return m.pending.Load() != 0
}

// ProcessInterrupts dispatches all pending interrupts in ascending line order.
// Interrupts raised by the handlers themselves are left pending for the next
// call.
func (m *Manager) ProcessInterrupts() {
	pending := m.pending.Swap(0)
	for pending != 0 {
		line := Line(bits.TrailingZeros64(pending))
		pending &^= 1 << line

		if handler := m.handlers[line]; handler != nil {
			handler(line)
		} else if m.unhandled != nil {
			*m.unhandled++
		}
	}
}

// WaitForInterrupt blocks until an interrupt is raised. There is no timeout;
// if an interrupt is already pending the call returns immediately. A wake-up
// may be spurious, in which case the next ProcessInterrupts call finds
// nothing to do.
func (m *Manager) WaitForInterrupt() {
	if m.Pending() {
		return
	}
	<-m.wake
}
