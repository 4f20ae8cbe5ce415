// Package service defines the contract between the kernel and the hosted
// service it exists to run.
package service

// Service is implemented by the program hosted by the kernel.
//
// Start is invoked once the boot sequence has completed. It may run for as
// long as it needs to but must return for the kernel to enter its event
// loop; a Start that never returns means the event loop has to be entered
// from elsewhere. Stop is invoked once, from the event loop, before the
// machine powers off.
type Service interface {
	Name() string
	Start()
	Stop()
}
