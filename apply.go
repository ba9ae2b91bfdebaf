// apply.go - the host collaborator interface and skipped-call side effects

package rr

import "fmt"

// MemoryHost is the external collaborator the replayer drives to
// reconstruct device-initiated side effects. It is the idiomatic
// counterpart of the physical-memory-read/write and region-factory
// primitives spec.md §1 names as out-of-scope externals the core only
// consumes: implementations back it with a real system bus the way
// memory_bus.go's SystemBus backs MemoryBus in the teacher, or with the
// internal/hostmem test double for tests and the cmd/rrlog demo path.
type MemoryHost interface {
	// WritePhysical writes buf into guest physical memory starting at
	// addr, the primitive behind CPU_MEM_RW and CPU_MEM_UNMAP replay.
	WritePhysical(addr uint64, buf []byte) error

	// AddRegion creates and attaches a named subregion of the given
	// type, size, and start address to the system memory root.
	AddRegion(name string, mtype MemType, start, size uint64) error

	// RemoveRegion detaches and releases the named subregion
	// previously added by AddRegion.
	RemoveRegion(name string) error
}

// applySkippedCall dispatches one SKIPPED_CALL entry's side effect to
// host. CPU_MEM_UNMAP mirrors the original's map/memcpy/unmap sequence
// with a single WritePhysical call: from the guest's perspective a
// map-memcpy-unmap and a direct physical write are indistinguishable,
// and the host implementation owns whatever the real distinction would
// be (e.g. triggering dirty-page tracking).
func applySkippedCall(host MemoryHost, args SkippedCallArgs) error {
	switch a := args.(type) {
	case CPUMemRWArgs:
		return host.WritePhysical(a.Addr, a.Buf)
	case CPUMemUnmapArgs:
		return host.WritePhysical(a.Addr, a.Buf)
	case MemRegionChangeArgs:
		if a.Added {
			return host.AddRegion(a.Name, a.MType, a.Start, a.Size)
		}
		return host.RemoveRegion(a.Name)
	case HDTransferArgs, NetTransferArgs, HandlePacketArgs:
		// Bookkeeping-only sub-kinds: nothing to apply against the
		// memory host. They are consumed and counted the same as any
		// other SKIPPED_CALL, but carry no MemoryHost side effect.
		return nil
	default:
		return divergence(fmt.Sprintf("unimplemented skipped-call sub-kind %v", args.Kind()), ProgramPoint{}, ProgramPoint{}, KindSkippedCall)
	}
}
