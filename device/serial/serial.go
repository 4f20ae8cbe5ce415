// Package serial implements the hosted console: a serial-port style driver
// that forwards kernel output to the process stdout.
package serial

import (
	"io"

	"includeos/device"
	"includeos/kernel"
	"includeos/kernel/kfmt"

	"github.com/mattn/go-colorable"
)

// Console is a write-only console device.
type Console struct {
	out     io.Writer
	written uint64
}

// NewConsole returns a console that writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	n, err := c.out.Write(p)
	c.written += uint64(n)
	return n, err
}

// BytesWritten returns the number of bytes written to the console.
func (c *Console) BytesWritten() uint64 {
	return c.written
}

// DriverName returns the name of this driver.
func (c *Console) DriverName() string {
	return "serial_console"
}

// DriverVersion returns the version of this driver.
func (c *Console) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit attaches the console as the kernel output sink. Output logged
// before this point is flushed to the console.
func (c *Console) DriverInit(w io.Writer) *kernel.Error {
	kfmt.SetOutputSink(c)
	return nil
}

var (
	// stdoutFn is mocked by tests.
	stdoutFn = colorable.NewColorableStdout

	_ device.Driver = (*Console)(nil)
)

func probeForConsole() device.Driver {
	return NewConsole(stdoutFn())
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForConsole,
	})
}
