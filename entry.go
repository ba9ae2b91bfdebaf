// entry.go - the tagged log entry and its skipped-call variants

package rr

// Kind is the closed enumeration of top-level log entry tags.
type Kind uint32

const (
	KindInput1 Kind = iota
	KindInput2
	KindInput4
	KindInput8
	KindInterruptRequest
	KindExitRequest
	KindSkippedCall
	KindDebug
	KindLast
)

func (k Kind) String() string {
	switch k {
	case KindInput1:
		return "INPUT_1"
	case KindInput2:
		return "INPUT_2"
	case KindInput4:
		return "INPUT_4"
	case KindInput8:
		return "INPUT_8"
	case KindInterruptRequest:
		return "INTERRUPT_REQUEST"
	case KindExitRequest:
		return "EXIT_REQUEST"
	case KindSkippedCall:
		return "SKIPPED_CALL"
	case KindDebug:
		return "DEBUG"
	case KindLast:
		return "LAST"
	default:
		return "UNKNOWN_KIND"
	}
}

// inputWidth returns the payload width in bytes for an INPUT_N kind.
func (k Kind) inputWidth() int {
	switch k {
	case KindInput1:
		return 1
	case KindInput2:
		return 2
	case KindInput4:
		return 4
	case KindInput8:
		return 8
	default:
		return 0
	}
}

// SkippedCallKind is the closed enumeration of SKIPPED_CALL sub-kinds.
type SkippedCallKind uint32

const (
	SkippedCPUMemRW SkippedCallKind = iota
	SkippedCPUMemUnmap
	SkippedMemRegionChange
	SkippedHDTransfer
	SkippedNetTransfer
	SkippedHandlePacket
)

func (k SkippedCallKind) String() string {
	switch k {
	case SkippedCPUMemRW:
		return "CPU_MEM_RW"
	case SkippedCPUMemUnmap:
		return "CPU_MEM_UNMAP"
	case SkippedMemRegionChange:
		return "MEM_REGION_CHANGE"
	case SkippedHDTransfer:
		return "HD_TRANSFER"
	case SkippedNetTransfer:
		return "NET_TRANSFER"
	case SkippedHandlePacket:
		return "HANDLE_PACKET"
	default:
		return "UNKNOWN_SKIPPED_CALL"
	}
}

// MemType names the kind of memory region a MEM_REGION_CHANGE adds or
// removes.
type MemType uint32

const (
	MemTypeRAM MemType = iota
	MemTypeIO
)

func (m MemType) String() string {
	if m == MemTypeIO {
		return "IO"
	}
	return "RAM"
}

// SkippedCallArgs is the sum type over the six SKIPPED_CALL variants. Each
// concrete type below implements it; switches over Kind() must stay
// exhaustive so a new sub-kind is a compile-time obligation everywhere one
// is handled.
type SkippedCallArgs interface {
	Kind() SkippedCallKind
}

// CPUMemRWArgs records a device write of buf into guest physical memory at
// addr. Len is carried separately from len(buf) because the wire format
// writes it as a signed i32, matching the original's call-site; Go code
// should treat it as len(buf) and never rely on a mismatch.
type CPUMemRWArgs struct {
	Addr uint64
	Len  int32
	Buf  []byte
}

func (CPUMemRWArgs) Kind() SkippedCallKind { return SkippedCPUMemRW }

// CPUMemUnmapArgs mirrors CPUMemRWArgs for the bulk write produced by a
// map/unmap cycle; the wire format carries Len as u64 here, not i32.
type CPUMemUnmapArgs struct {
	Addr uint64
	Len  uint64
	Buf  []byte
}

func (CPUMemUnmapArgs) Kind() SkippedCallKind { return SkippedCPUMemUnmap }

// MemRegionChangeArgs records a memory-map topology change: a named region
// of Size bytes starting at Start was added or removed.
type MemRegionChangeArgs struct {
	Start uint64
	Size  uint64
	MType MemType
	Added bool
	Name  string
}

func (MemRegionChangeArgs) Kind() SkippedCallKind { return SkippedMemRegionChange }

// TransferArgs is the shared shape of HD_TRANSFER and NET_TRANSFER: pure
// bookkeeping, no payload bytes.
type TransferArgs struct {
	Type     uint32
	Src      uint64
	Dst      uint64
	NumBytes uint32
}

// HDTransferArgs records a disk transfer.
type HDTransferArgs struct{ TransferArgs }

func (HDTransferArgs) Kind() SkippedCallKind { return SkippedHDTransfer }

// NetTransferArgs records a network transfer.
type NetTransferArgs struct{ TransferArgs }

func (NetTransferArgs) Kind() SkippedCallKind { return SkippedNetTransfer }

// HandlePacketArgs records an inbound or outbound network packet. The
// original buffer pointer is a compatibility hazard (meaningless across
// runs, see DESIGN.md) and is not represented here at all.
type HandlePacketArgs struct {
	Direction uint8
	Size      int32
	Buf       []byte
}

func (HandlePacketArgs) Kind() SkippedCallKind { return SkippedHandlePacket }

// Entry is a decoded (or about-to-be-encoded) log record. Only the fields
// relevant to Kind are meaningful; Value carries the numeric payload for
// INPUT_N/INTERRUPT_REQUEST/EXIT_REQUEST, Skipped carries the variant for
// SKIPPED_CALL. next links the entry into whichever singly-linked
// structure currently owns it: the prefetch queue, the recycle pool, or
// neither while it is on loan to a caller.
type Entry struct {
	PP       ProgramPoint
	Kind     Kind
	Callsite CallsiteID
	Value    uint64
	Skipped  SkippedCallArgs

	next *Entry
}

// reset clears an entry to its zero value so it can be reused from the
// recycle pool without carrying stale payload references forward; any
// owned buffer inside Skipped must already have been released by the
// caller before reset is called (see recyclePool.push in queue.go).
func (e *Entry) reset() {
	e.PP = ProgramPoint{}
	e.Kind = 0
	e.Callsite = 0
	e.Value = 0
	e.Skipped = nil
}
