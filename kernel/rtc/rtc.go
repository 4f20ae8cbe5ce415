// Package rtc provides the kernel's monotonic and real-time clocks. Both are
// anchored at the moment Init is called during boot.
package rtc

import (
	"time"

	"golang.org/x/sys/unix"
)

// CycleFn returns the current value of the CPU cycle counter.
type CycleFn func() uint64

// Clock tracks time since boot and the wall-clock time at boot.
type Clock struct {
	cycles       CycleFn
	freqMHz      uint64
	bootCycles   uint64
	bootUnixNano int64
}

// realtimeFn is mocked by tests.
var realtimeFn = func() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return time.Now().UnixNano()
	}
	return ts.Nano()
}

// Init anchors the clock at the current cycle count and wall-clock time.
// freqMHz is the frequency of the cycle counter; it must be non-zero.
func (c *Clock) Init(cycles CycleFn, freqMHz uint64) {
	if freqMHz == 0 {
		freqMHz = 1
	}

	c.cycles = cycles
	c.freqMHz = freqMHz
	c.bootCycles = cycles()
	c.bootUnixNano = realtimeFn()
}

// Initialized returns true once Init has been called.
func (c *Clock) Initialized() bool {
	return c.cycles != nil
}

// FrequencyMHz returns the cycle counter frequency.
func (c *Clock) FrequencyMHz() uint64 {
	return c.freqMHz
}

// CyclesSinceBoot returns the number of cycles elapsed since Init.
func (c *Clock) CyclesSinceBoot() uint64 {
	if c.cycles == nil {
		return 0
	}
	return c.cycles() - c.bootCycles
}

// MicrosSinceBoot returns the number of microseconds elapsed since Init.
func (c *Clock) MicrosSinceBoot() int64 {
	return int64(c.CyclesSinceBoot() / c.freqMHz)
}

// TimeSinceBoot returns the uptime of the kernel.
func (c *Clock) TimeSinceBoot() time.Duration {
	return time.Duration(c.MicrosSinceBoot()) * time.Microsecond
}

// BootTimestamp returns the wall-clock time at which the clock was
// initialized.
func (c *Clock) BootTimestamp() time.Time {
	return time.Unix(0, c.bootUnixNano)
}

// Now returns the current wall-clock time derived from the boot timestamp and
// the monotonic uptime.
func (c *Clock) Now() time.Time {
	return c.BootTimestamp().Add(c.TimeSinceBoot())
}
