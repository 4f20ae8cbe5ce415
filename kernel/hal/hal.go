// Package hal contains the hardware abstraction layer: the Platform contract
// the boot sequence consumes and the driver probe that runs as part of the
// platform init hook.
package hal

import (
	"bytes"
	"fmt"
	"includeos/device"
	"includeos/kernel/kfmt"
	"sort"
)

var strBuf bytes.Buffer

// activeDrivers tracks all initialized device drivers.
var activeDrivers []device.Driver

// ActiveDrivers returns the drivers initialized by DetectHardware.
func ActiveDrivers() []device.Driver {
	return activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Stable(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver. A driver whose init
// code fails is reported and skipped.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		fmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.SetPrefix(strBuf.String())

		if err := drv.DriverInit(&w); err != nil {
			fmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		// The driver may have replaced the output sink (e.g. a console).
		w.Sink = kfmt.GetOutputSink()
		fmt.Fprintf(&w, "initialized\n")
		activeDrivers = append(activeDrivers, drv)
	}
}
