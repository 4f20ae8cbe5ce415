// Package softreset encodes the state that survives a soft reset. The
// previous run stores a Record at some address and restarts the kernel with
// a soft-reset boot magic and that address.
package softreset

import (
	"encoding/binary"
	"hash/crc32"

	"includeos/kernel"
	"includeos/kernel/mem"
)

const (
	// BootMagic is the boot magic passed to the kernel after a soft reset.
	BootMagic = uint32(0xFEE1DEAD)

	// recordMagic tags a valid record.
	recordMagic = uint32(0x0BADF00D)

	// RecordSize is the encoded size of a Record in bytes.
	RecordSize = 32
)

var (
	errShortBuffer = &kernel.Error{Module: "softreset", Message: "buffer too small for resume record", Kind: kernel.KindCollaborator}
	errBadMagic    = &kernel.Error{Module: "softreset", Message: "resume record has invalid magic", Kind: kernel.KindCollaborator}
	errBadChecksum = &kernel.Error{Module: "softreset", Message: "resume record checksum mismatch", Kind: kernel.KindCollaborator}
)

// IsMagic returns true if bootMagic identifies a soft reset.
func IsMagic(bootMagic uint32) bool {
	return bootMagic == BootMagic
}

// Record is the session state carried across a soft reset.
type Record struct {
	HighMemorySize mem.Size
	CPUFreqMHz     uint32
	LiveUpdateLoc  uint64
}

// Encode writes r to buf using the layout
//
//	[0:4]   magic
//	[4:8]   crc32 (IEEE) of bytes [8:32]
//	[8:16]  high memory size
//	[16:20] cpu frequency in MHz
//	[20:24] reserved
//	[24:32] live-update location
func (r Record) Encode(buf []byte) *kernel.Error {
	if len(buf) < RecordSize {
		return errShortBuffer
	}

	binary.LittleEndian.PutUint32(buf[0:], recordMagic)
	binary.LittleEndian.PutUint64(buf[8:], uint64(r.HighMemorySize))
	binary.LittleEndian.PutUint32(buf[16:], r.CPUFreqMHz)
	binary.LittleEndian.PutUint32(buf[20:], 0)
	binary.LittleEndian.PutUint64(buf[24:], r.LiveUpdateLoc)
	binary.LittleEndian.PutUint32(buf[4:], crc32.ChecksumIEEE(buf[8:RecordSize]))
	return nil
}

// Decode parses and validates a record previously written by Encode.
func Decode(buf []byte) (Record, *kernel.Error) {
	if len(buf) < RecordSize {
		return Record{}, errShortBuffer
	}

	if binary.LittleEndian.Uint32(buf[0:]) != recordMagic {
		return Record{}, errBadMagic
	}

	if binary.LittleEndian.Uint32(buf[4:]) != crc32.ChecksumIEEE(buf[8:RecordSize]) {
		return Record{}, errBadChecksum
	}

	return Record{
		HighMemorySize: mem.Size(binary.LittleEndian.Uint64(buf[8:])),
		CPUFreqMHz:     binary.LittleEndian.Uint32(buf[16:]),
		LiveUpdateLoc:  binary.LittleEndian.Uint64(buf[24:]),
	}, nil
}
