package rr

import (
	"path/filepath"
	"testing"
)

type seqClock struct{ pp ProgramPoint }

func (c *seqClock) Now() ProgramPoint { return c.pp }

func TestRecorderInterruptCompaction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ic-rr-nondet.log")
	clock := &seqClock{}
	log, err := OpenRecordLog(path)
	if err != nil {
		t.Fatalf("OpenRecordLog: %v", err)
	}
	rec := NewRecorder(log, clock)
	cs := RegisterCallsite("recorder_test.interrupt")

	clock.pp = ProgramPoint{Instr: 5}
	mustOK(t, rec.RecordInterruptRequest(cs, 1))
	clock.pp = ProgramPoint{Instr: 6}
	mustOK(t, rec.RecordInterruptRequest(cs, 1)) // no-op: same value
	clock.pp = ProgramPoint{Instr: 7}
	mustOK(t, rec.RecordInterruptRequest(cs, 2))
	if err := log.Close(ProgramPoint{Instr: 7}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, _ := readAllEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("got %d INTERRUPT_REQUEST entries, want 2 (compaction should drop the repeat)", len(entries))
	}
	if entries[0].Value != 1 || entries[1].Value != 2 {
		t.Fatalf("got values %d,%d want 1,2", entries[0].Value, entries[1].Value)
	}
}

func TestRecorderExitRequestNonzeroOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "er-rr-nondet.log")
	clock := &seqClock{}
	log, err := OpenRecordLog(path)
	if err != nil {
		t.Fatalf("OpenRecordLog: %v", err)
	}
	rec := NewRecorder(log, clock)
	cs := RegisterCallsite("recorder_test.exit")

	mustOK(t, rec.RecordExitRequest(cs, 0))
	clock.pp = ProgramPoint{Instr: 1}
	mustOK(t, rec.RecordExitRequest(cs, 3))
	if err := log.Close(ProgramPoint{Instr: 1}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, _ := readAllEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("got %d EXIT_REQUEST entries, want 1 (zero value should be suppressed)", len(entries))
	}
	if entries[0].Value != 3 {
		t.Fatalf("got value %d, want 3", entries[0].Value)
	}
}

func TestFlushTrackedRegionsCoalescesDMA(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dma-rr-nondet.log")
	clock := &seqClock{}
	log, err := OpenRecordLog(path)
	if err != nil {
		t.Fatalf("OpenRecordLog: %v", err)
	}
	rec := NewRecorder(log, clock)
	cs := RegisterCallsite("recorder_test.dma")

	region := make([]byte, 16)
	rec.TrackRegion(0x8000, func() []byte { return region })

	clock.pp = ProgramPoint{Instr: 1}
	region[0] = 0xAA
	mustOK(t, rec.FlushTrackedRegions(cs)) // dirty: emits

	clock.pp = ProgramPoint{Instr: 2}
	mustOK(t, rec.FlushTrackedRegions(cs)) // unchanged: no-op

	clock.pp = ProgramPoint{Instr: 3}
	region[15] = 0xBB
	mustOK(t, rec.FlushTrackedRegions(cs)) // dirty again: emits

	if err := log.Close(ProgramPoint{Instr: 3}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, _ := readAllEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("got %d CPU_MEM_RW entries, want 2 (one per actual change)", len(entries))
	}
	for _, e := range entries {
		if e.Kind != KindSkippedCall {
			t.Fatalf("entry kind = %v, want SKIPPED_CALL", e.Kind)
		}
		args, ok := e.Skipped.(CPUMemRWArgs)
		if !ok {
			t.Fatalf("entry skipped args type = %T, want CPUMemRWArgs", e.Skipped)
		}
		if len(args.Buf) != 16 {
			t.Fatalf("coalesced buf len = %d, want 16 (whole region)", len(args.Buf))
		}
	}
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
