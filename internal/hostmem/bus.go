// bus.go - a minimal physical memory + region table implementing rr.MemoryHost
//
// Adapted from the teacher's memory_bus.go: the same contiguous byte
// slice plus sync.RWMutex shape, generalized from 32-bit bus-word access
// to the arbitrary-length physical writes and named region add/remove
// rr.MemoryHost actually needs.

package hostmem

import (
	"fmt"
	"sync"

	"github.com/skydiator/qemu-rr"
)

// Bus is a flat guest physical address space with a named, non-owning
// region table layered on top — enough for rr's SKIPPED_CALL replay to
// exercise WritePhysical/AddRegion/RemoveRegion without a real system
// bus. It is also used directly by cmd/rrlog's demo path.
type Bus struct {
	mu      sync.RWMutex
	memory  []byte
	regions map[string]region
}

type region struct {
	mtype       rr.MemType
	start, size uint64
}

// NewBus allocates a flat memory space of size bytes.
func NewBus(size int) *Bus {
	return &Bus{memory: make([]byte, size), regions: make(map[string]region)}
}

// WritePhysical copies buf into guest physical memory starting at addr,
// the primitive behind CPU_MEM_RW and CPU_MEM_UNMAP replay.
func (b *Bus) WritePhysical(addr uint64, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	end := addr + uint64(len(buf))
	if end > uint64(len(b.memory)) || end < addr {
		return fmt.Errorf("hostmem: write [%#x,%#x) out of range (size %#x)", addr, end, len(b.memory))
	}
	copy(b.memory[addr:end], buf)
	return nil
}

// ReadPhysical returns a copy of n bytes of guest physical memory
// starting at addr, used by a recorder's tracked-region content
// accessor.
func (b *Bus) ReadPhysical(addr uint64, n int) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	end := addr + uint64(n)
	if end > uint64(len(b.memory)) || end < addr {
		return nil, fmt.Errorf("hostmem: read [%#x,%#x) out of range (size %#x)", addr, end, len(b.memory))
	}
	out := make([]byte, n)
	copy(out, b.memory[addr:end])
	return out, nil
}

// AddRegion registers a named subregion. Re-adding an existing name
// replaces it, mirroring the teacher's MapIO which simply appends without
// checking for collisions; here a map keyed by name makes re-registration
// an overwrite instead of a silent duplicate.
func (b *Bus) AddRegion(name string, mtype rr.MemType, start, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regions[name] = region{mtype: mtype, start: start, size: size}
	return nil
}

// RemoveRegion detaches the named subregion. Removing an unknown name is
// not an error: replay may remove a region the host implementation never
// needed to materialize.
func (b *Bus) RemoveRegion(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.regions, name)
	return nil
}

// HasRegion reports whether name is currently registered, for tests that
// check end-of-replay memory-map state against end-of-record state (S5).
func (b *Bus) HasRegion(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.regions[name]
	return ok
}

// Reset clears memory and the region table, mirroring the teacher's
// SystemBus.Reset.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.memory {
		b.memory[i] = 0
	}
	b.regions = make(map[string]region)
}

// Contents returns a copy of the full memory image, for checksumming via
// rr.ChecksumMemory.
func (b *Bus) Contents() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.memory))
	copy(out, b.memory)
	return out
}
