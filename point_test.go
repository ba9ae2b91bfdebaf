package rr

import "testing"

func TestProgramPointCompare(t *testing.T) {
	cases := []struct {
		a, b ProgramPoint
		want int
	}{
		{ProgramPoint{1, 0, 0}, ProgramPoint{2, 0, 0}, -1},
		{ProgramPoint{2, 0, 0}, ProgramPoint{1, 0, 0}, 1},
		{ProgramPoint{1, 1, 0}, ProgramPoint{1, 2, 0}, -1},
		{ProgramPoint{1, 1, 1}, ProgramPoint{1, 1, 2}, -1},
		{ProgramPoint{1, 1, 1}, ProgramPoint{1, 1, 1}, 0},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Fatalf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMatchesForKindAware(t *testing.T) {
	now := ProgramPoint{Instr: 5, PC: 0x100, Secondary: 1}

	// INTERRUPT_REQUEST ignores pc/secondary.
	head := ProgramPoint{Instr: 5, PC: 0x999, Secondary: 9}
	if !matchesFor(KindInterruptRequest, head, now) {
		t.Fatalf("expected INTERRUPT_REQUEST to match on instr alone")
	}
	if !matchesFor(KindSkippedCall, head, now) {
		t.Fatalf("expected SKIPPED_CALL to match on instr alone")
	}

	// INPUT_* requires an exact triple match.
	if matchesFor(KindInput4, head, now) {
		t.Fatalf("expected INPUT_4 to require exact match")
	}
	if !matchesFor(KindInput4, now, now) {
		t.Fatalf("expected INPUT_4 to match when exact")
	}
}

func TestMatchesForStartOfLogGrace(t *testing.T) {
	zero := ProgramPoint{}
	now := ProgramPoint{Instr: 100, PC: 0x4000, Secondary: 3}
	if !matchesFor(KindInput1, zero, now) {
		t.Fatalf("expected PP==0 to bypass comparison (start-of-log grace)")
	}
}
