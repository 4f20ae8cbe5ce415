// Package cpu exposes the processor capabilities used by the kernel core. On
// the hosted platform the cycle counter is backed by the monotonic clock and
// one cycle corresponds to one nanosecond.
package cpu

import (
	"math/bits"
	"runtime"

	"golang.org/x/sys/unix"
)

// HaltExitCode is the process exit status reported when the CPU is halted
// after an unrecoverable error.
const HaltExitCode = 134

// FrequencyMHz is the nominal frequency of the hosted cycle counter.
const FrequencyMHz = 1000

var (
	// clockGettimeFn and exitFn are mocked by tests.
	clockGettimeFn = unix.ClockGettime
	exitFn         = unix.Exit
)

// Halt stops instruction execution. Calls to Halt never return.
func Halt() {
	exitFn(HaltExitCode)
}

// Cycles returns the value of the monotonic cycle counter.
func Cycles() uint64 {
	var ts unix.Timespec
	if err := clockGettimeFn(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}

	return uint64(ts.Nano())
}

// Arch returns the name of the architecture the kernel was built for.
func Arch() string {
	return runtime.GOARCH
}

// PointerWidth returns the width of a pointer in bits.
func PointerWidth() int {
	return bits.UintSize
}
