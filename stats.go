// stats.go - per-kind counters, history ring, and progress/divergence reporting

package rr

import (
	"fmt"
	"io"
)

const historySize = 10

// kindCount tracks one entry kind's running totals, matching the original
// rr_number_of_log_entries/rr_size_of_log_entries pair.
type kindCount struct {
	entries int64
	bytes   int64
}

// Stats accumulates per-kind entry/byte counts and a fixed-size ring of
// the most recently decoded (replay) or written (record) entries, for
// post-mortem reporting. On replay the ring follows decoding, which the
// prefetch queue runs ahead of, so it does not track which entries a
// replay_* caller has consumed. History
// entries are value copies; no buffer inside a SKIPPED_CALL payload is
// kept alive by history past the entry's own recycling.
type Stats struct {
	counts  [int(KindLast) + 1]kindCount
	history [historySize]historyEntry
	histLen int
	histPos int

	lastPercent int
	maxQueueLen int
}

type historyEntry struct {
	PP       ProgramPoint
	Kind     Kind
	Callsite CallsiteID
}

func newStats() *Stats { return &Stats{lastPercent: -1} }

// record updates the per-kind counters and pushes a value-copy summary of
// e into the ring history. size is computed by the caller (codec.go)
// implicitly via field writes; Stats approximates it from the decoded
// shape, which is sufficient for the diagnostic report this drives.
func (s *Stats) record(kind Kind, e *Entry) {
	s.counts[int(kind)].entries++
	s.counts[int(kind)].bytes += int64(entryWireSize(e))

	s.history[s.histPos] = historyEntry{PP: e.PP, Kind: e.Kind, Callsite: e.Callsite}
	s.histPos = (s.histPos + 1) % historySize
	if s.histLen < historySize {
		s.histLen++
	}
}

// entryWireSize approximates the bytes consumed writing or reading e,
// header included, for the stats report. It is diagnostic only; it plays
// no role in codec correctness.
func entryWireSize(e *Entry) int {
	size := headerSize + 4 + 4 // PP(24) + kind(4) + callsite(4)
	switch e.Kind {
	case KindInput1:
		size += 1
	case KindInput2:
		size += 2
	case KindInput4, KindInterruptRequest, KindExitRequest:
		size += 4
	case KindInput8:
		size += 8
	case KindSkippedCall:
		size += 4 // sub-kind tag
		switch a := e.Skipped.(type) {
		case CPUMemRWArgs:
			size += 8 + 4 + len(a.Buf)
		case CPUMemUnmapArgs:
			size += 8 + 8 + len(a.Buf)
		case MemRegionChangeArgs:
			size += 8 + 8 + 4 + 4 + 1 + len(a.Name)
		case HDTransferArgs, NetTransferArgs:
			size += 4 + 8 + 8 + 4
		case HandlePacketArgs:
			size += 4 + 1 + len(a.Buf)
		}
	}
	return size
}

// Progress reports the integer percent of replay completed, given the
// current instruction count and the header's final instruction count. It
// returns (percent, true) only the first time a given integer percent is
// crossed, matching the original's once-per-boundary replay_progress.
func (s *Stats) Progress(currentInstr, lastInstr uint64) (int, bool) {
	if lastInstr == 0 {
		return 0, false
	}
	percent := int(100 * currentInstr / lastInstr)
	if percent > 100 {
		percent = 100
	}
	if percent != s.lastPercent {
		s.lastPercent = percent
		return percent, true
	}
	return percent, false
}

// noteQueueLen records the high-water mark reached by the prefetch queue
// during Fill, printed by Report. It stays zero when a log is read without
// Fill, as cmd/rrlog stats does.
func (s *Stats) noteQueueLen(n int) {
	if n > s.maxQueueLen {
		s.maxQueueLen = n
	}
}

// MaxQueueLen returns the high-water mark the prefetch queue reached.
func (s *Stats) MaxQueueLen() int { return s.maxQueueLen }

// Report writes a human-readable per-kind count/byte table, the shape of
// the original's end-of-replay statistics dump.
func (s *Stats) Report(w io.Writer) {
	fmt.Fprintf(w, "rr stats:\n")
	for k := 0; k <= int(KindLast); k++ {
		c := s.counts[k]
		if c.entries == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-20s entries=%-8d bytes=%d\n", Kind(k), c.entries, c.bytes)
	}
	fmt.Fprintf(w, "  max queue length: %d\n", s.maxQueueLen)
}

// History returns the most recently decoded or written entries, oldest
// first, for a divergence dump.
func (s *Stats) History() []historyEntry {
	out := make([]historyEntry, s.histLen)
	for i := 0; i < s.histLen; i++ {
		idx := (s.histPos - s.histLen + i + historySize) % historySize
		out[i] = s.history[idx]
	}
	return out
}

// ReportDivergence prints the current/expected program points and kinds
// the way the original's assertion handler does before aborting, plus the
// trailing history ring for post-mortem inspection.
func ReportDivergence(w io.Writer, err error, s *Stats) {
	fmt.Fprintf(w, "rr: divergence: %v\n", err)
	if s == nil {
		return
	}
	fmt.Fprintf(w, "rr: last %d entries decoded or written:\n", len(s.History()))
	for _, h := range s.History() {
		fmt.Fprintf(w, "  %s %s callsite=%s\n", h.PP, h.Kind, CallsiteName(h.Callsite))
	}
}
