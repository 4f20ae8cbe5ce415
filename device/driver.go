// Package device defines the driver model used by the hal to probe the
// devices of the platform the kernel boots on.
package device

import (
	"includeos/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal.
type DetectOrder int8

const (
	// DetectOrderEarly drivers are probed before anything else; console
	// drivers use it so later drivers can log.
	DetectOrderEarly DetectOrder = iota - 2

	// DetectOrderBeforePlatform drivers are probed before the platform
	// specific bus drivers.
	DetectOrderBeforePlatform

	// DetectOrderPlatform is the slot used by platform bus drivers.
	DetectOrderPlatform

	// DetectOrderLast drivers are probed after every other driver.
	DetectOrderLast
)

// DriverInfo is used to register a driver with the driver registry.
type DriverInfo struct {
	// Order specifies at which stage of the hardware detection process
	// this driver's probe function should be invoked.
	Order DetectOrder

	// Probe is invoked by the hal to detect the presence of the device.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges two elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares two elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the list of drivers that
// the hal probes for.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns a copy of the registered drivers.
func DriverList() DriverInfoList {
	out := make(DriverInfoList, len(registeredDrivers))
	copy(out, registeredDrivers)
	return out
}
