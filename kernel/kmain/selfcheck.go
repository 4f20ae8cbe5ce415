package kmain

import (
	"includeos/kernel"
	"includeos/kernel/kfmt"
)

var (
	// selfCheckPanicFn is mocked by tests.
	selfCheckPanicFn = kfmt.Panic

	errSelfCheckNotBooted  = &kernel.Error{Module: "Kernel", Message: "self-check: boot not completed", Kind: kernel.KindCollaborator}
	errSelfCheckNoCounters = &kernel.Error{Module: "Kernel", Message: "self-check: idle counters missing from diagnostics registry", Kind: kernel.KindCollaborator}
)

// sanityChecks verifies the boot invariants after the service has started.
// A failed check panics the kernel.
func (k *Kernel) sanityChecks() {
	if err := k.selfCheck(); err != nil {
		selfCheckPanicFn(err)
	}
}

func (k *Kernel) selfCheck() *kernel.Error {
	if !k.booted {
		return errSelfCheckNotBooted
	}

	if err := k.memmap.Verify(); err != nil {
		return err
	}

	for _, name := range []string{CounterCyclesHalted, CounterCyclesTotal} {
		if stat := k.stats.Get(name); stat == nil {
			return errSelfCheckNoCounters
		}
	}
	return nil
}
