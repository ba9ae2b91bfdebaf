// point.go - program point ordering key

package rr

import "fmt"

// ProgramPoint is the total-order key over every event the recorder observes:
// the guest instruction count, the program counter at that instruction, and a
// secondary discriminator for events that share an instruction boundary.
type ProgramPoint struct {
	Instr     uint64
	PC        uint64
	Secondary uint64
}

// Compare returns -1, 0, or 1 as p sorts before, equal to, or after q,
// lexicographic on Instr, then PC, then Secondary.
func (p ProgramPoint) Compare(q ProgramPoint) int {
	switch {
	case p.Instr != q.Instr:
		if p.Instr < q.Instr {
			return -1
		}
		return 1
	case p.PC != q.PC:
		if p.PC < q.PC {
			return -1
		}
		return 1
	case p.Secondary != q.Secondary:
		if p.Secondary < q.Secondary {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts strictly before q.
func (p ProgramPoint) Less(q ProgramPoint) bool { return p.Compare(q) < 0 }

// StartOfLog reports whether p's instruction count is zero (PC and
// Secondary are not looked at), the grace case the queue dispatcher
// bypasses ordinary comparison for.
func (p ProgramPoint) StartOfLog() bool { return p.Instr == 0 }

func (p ProgramPoint) String() string {
	return fmt.Sprintf("(%d,%#x,%d)", p.Instr, p.PC, p.Secondary)
}

// matchesFor reports whether a queued entry at point head is due for
// dispatch against the current point now, for the given kind. Point
// comparison is kind-aware: INTERRUPT_REQUEST and SKIPPED_CALL entries are
// attributed only to an instruction boundary, so pc/secondary are ignored
// for them; every other kind requires an exact triple match.
func matchesFor(kind Kind, head, now ProgramPoint) bool {
	if head.StartOfLog() {
		return true
	}
	if kind == KindInterruptRequest || kind == KindSkippedCall {
		return head.Instr == now.Instr
	}
	return head.Compare(now) == 0
}

// overshoot reports whether head is strictly past now for kind's
// comparison granularity: the get_next exact policy (spec §4.3) — "returns
// none whenever the queue head's PP is strictly greater than the current
// PP" — the caller retries on its next call-site visit once now catches up.
func overshoot(kind Kind, head, now ProgramPoint) bool {
	if head.StartOfLog() {
		return false
	}
	if kind == KindInterruptRequest || kind == KindSkippedCall {
		return head.Instr > now.Instr
	}
	return head.Compare(now) > 0
}
