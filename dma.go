// dma.go - tracked-region CRC32 coalescing

package rr

import "hash/crc32"

// trackedRegion pairs a DMA-mapped guest physical address with the
// content accessor and last-flushed CRC the recorder uses to decide
// whether anything actually changed since the previous flush.
type trackedRegion struct {
	addr    uint64
	content func() []byte
	hasCRC  bool
	crc     uint32
}

// TrackRegion registers addr as DMA-mapped: content must return the
// region's current bytes on demand. Re-registering the same address
// replaces the accessor and resets its cached CRC, matching a fresh
// mapping rather than a continuation of a stale one.
func (rec *Recorder) TrackRegion(addr uint64, content func() []byte) {
	rec.regions[addr] = &trackedRegion{addr: addr, content: content}
}

// UntrackRegion removes addr from DMA tracking; it stops being flushed.
func (rec *Recorder) UntrackRegion(addr uint64) {
	delete(rec.regions, addr)
}

// FlushTrackedRegions checksums every tracked region and, for each whose
// CRC32 has changed since the last flush, emits a single coalesced
// CPU_MEM_RW entry for the whole region before updating the cached CRC.
// This converts an unknown number of device writes between flush points
// into exactly one log entry per dirtied region, per spec.md §4.1.
func (rec *Recorder) FlushTrackedRegions(callsite CallsiteID) error {
	for _, tr := range rec.regions {
		data := tr.content()
		sum := crc32.ChecksumIEEE(data)
		if tr.hasCRC && sum == tr.crc {
			continue
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		args := CPUMemRWArgs{Addr: tr.addr, Len: int32(len(buf)), Buf: buf}
		if err := rec.RecordSkippedCall(callsite, args); err != nil {
			return err
		}
		tr.hasCRC = true
		tr.crc = sum
	}
	return nil
}
