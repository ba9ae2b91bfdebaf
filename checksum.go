// checksum.go - standalone RAM and register-bank checksums

package rr

import (
	"encoding/binary"
	"hash/crc32"
)

// ChecksumMemory returns the CRC32 of a RAM image, for comparing two
// replays (or a record run against a replay) out of band. These helpers
// mirror the original's rr_checksum_memory/rr_checksum_regs: they are not
// written into the log — RR_DEBUG's wire payload is empty both here and
// in the original — they exist purely for an external harness or
// debugger to call independently on both sides of a comparison at a
// matching RecordDebug/replay call-site.
func ChecksumMemory(ram []byte) uint32 {
	return crc32.ChecksumIEEE(ram)
}

// ChecksumRegisters returns the CRC32 of a register bank, given as an
// ordered slice of register values. The caller is responsible for
// presenting registers in the same order on both sides of a comparison;
// this function does not know their names or widths.
func ChecksumRegisters(regs []uint64) uint32 {
	buf := make([]byte, 8*len(regs))
	for i, r := range regs {
		binary.LittleEndian.PutUint64(buf[i*8:], r)
	}
	return crc32.ChecksumIEEE(buf)
}
