package kmain

import (
	"includeos/kernel"
	"includeos/kernel/softreset"
)

// SetLiveUpdateLocation records the address of the live-update storage area
// that should survive the next soft reset.
func (k *Kernel) SetLiveUpdateLocation(loc uint64) {
	k.liveUpdateLoc = loc
}

// LiveUpdateLocation returns the live-update storage address, either set by
// the service or restored by a soft reset.
func (k *Kernel) LiveUpdateLocation() uint64 {
	return k.liveUpdateLoc
}

// CPUFrequencyMHz returns the cycle counter frequency in use.
func (k *Kernel) CPUFrequencyMHz() uint64 {
	return k.cpuFreq
}

// PrepareSoftReset stores the current session in the platform's resume area
// and returns the address to pass, together with softreset.BootMagic, to
// the next boot.
func (k *Kernel) PrepareSoftReset() (uint32, *kernel.Error) {
	rec := softreset.Record{
		HighMemorySize: k.boot.HighMemorySize,
		CPUFreqMHz:     uint32(k.cpuFreq),
		LiveUpdateLoc:  k.liveUpdateLoc,
	}

	var buf [softreset.RecordSize]byte
	if err := rec.Encode(buf[:]); err != nil {
		return 0, err
	}

	addr, ok := k.platform.StoreResume(buf[:])
	if !ok {
		return 0, errResumeStore
	}

	k.log.Info().Msgf("Soft-reset record stored at 0x%x", addr)
	return addr, nil
}
