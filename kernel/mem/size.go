// Package mem defines the size and address helpers shared by the memory
// layout code.
package mem

import (
	"math"
	"strconv"
	"strings"

	"includeos/kernel"
)

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

const (
	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize defines the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// MaxSpan is the largest address span that can be represented as a
	// signed linear offset on this platform.
	MaxSpan = uintptr(math.MaxInt)
)

var errInvalidSize = &kernel.Error{Module: "mem", Message: "invalid memory size", Kind: kernel.KindCollaborator}

// String returns a human-readable representation of the size using the
// largest unit that divides it exactly.
func (s Size) String() string {
	switch {
	case s >= Gb && s%Gb == 0:
		return strconv.FormatUint(uint64(s/Gb), 10) + " GiB"
	case s >= Mb && s%Mb == 0:
		return strconv.FormatUint(uint64(s/Mb), 10) + " MiB"
	case s >= Kb && s%Kb == 0:
		return strconv.FormatUint(uint64(s/Kb), 10) + " KiB"
	default:
		return strconv.FormatUint(uint64(s), 10) + " B"
	}
}

// ParseSize parses strings such as "512MiB", "2 GiB", "640K" or "4096".
func ParseSize(str string) (Size, *kernel.Error) {
	str = strings.TrimSpace(str)
	idx := strings.IndexFunc(str, func(r rune) bool { return r < '0' || r > '9' })
	if idx == 0 || str == "" {
		return 0, errInvalidSize
	}

	numPart, unitPart := str, ""
	if idx > 0 {
		numPart, unitPart = str[:idx], strings.TrimSpace(str[idx:])
	}

	val, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, errInvalidSize
	}

	var unit Size
	switch strings.ToLower(unitPart) {
	case "", "b":
		unit = Byte
	case "k", "kb", "kib":
		unit = Kb
	case "m", "mb", "mib":
		unit = Mb
	case "g", "gb", "gib":
		unit = Gb
	default:
		return 0, errInvalidSize
	}

	return Size(val) * unit, nil
}

// AlignDown clears the bits of addr that are not set in mask.
func AlignDown(addr uintptr, mask uintptr) uintptr {
	return addr & mask
}

// AlignUp rounds addr up to the next multiple of align, which must be a power
// of two.
func AlignUp(addr uintptr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}
