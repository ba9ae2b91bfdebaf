package rr

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
)

func writeTestEntries(t *testing.T, path string, entries []*Entry) ProgramPoint {
	t.Helper()
	log, err := OpenRecordLog(path)
	if err != nil {
		t.Fatalf("OpenRecordLog: %v", err)
	}
	var last ProgramPoint
	for _, e := range entries {
		if err := log.writeItem(e); err != nil {
			t.Fatalf("writeItem: %v", err)
		}
		last = e.PP
	}
	if err := log.Close(last); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return last
}

func readAllEntries(t *testing.T, path string) ([]*Entry, ProgramPoint) {
	t.Helper()
	log, err := OpenReplayLog(path)
	if err != nil {
		t.Fatalf("OpenReplayLog: %v", err)
	}
	defer log.Close(ProgramPoint{})

	var out []*Entry
	for {
		e, err := log.ReadItem()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("ReadItem: %v", err)
		}
		out = append(out, e)
	}
	return out, log.LastProgramPoint()
}

func TestCodecRoundTripAllKinds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t-rr-nondet.log")

	cs := RegisterCallsite("codec_test")
	in := []*Entry{
		{PP: ProgramPoint{Instr: 1}, Kind: KindInput1, Callsite: cs, Value: 0x42},
		{PP: ProgramPoint{Instr: 2}, Kind: KindInput2, Callsite: cs, Value: 0x1234},
		{PP: ProgramPoint{Instr: 3}, Kind: KindInput4, Callsite: cs, Value: 0xDEADBEEF},
		{PP: ProgramPoint{Instr: 4}, Kind: KindInput8, Callsite: cs, Value: 0x0102030405060708},
		{PP: ProgramPoint{Instr: 5}, Kind: KindInterruptRequest, Callsite: cs, Value: 1},
		{PP: ProgramPoint{Instr: 6}, Kind: KindExitRequest, Callsite: cs, Value: 7},
		{PP: ProgramPoint{Instr: 7}, Kind: KindDebug, Callsite: cs},
		{PP: ProgramPoint{Instr: 8}, Kind: KindSkippedCall, Callsite: cs, Skipped: CPUMemRWArgs{Addr: 0x1000, Len: 3, Buf: []byte{1, 2, 3}}},
		{PP: ProgramPoint{Instr: 9}, Kind: KindSkippedCall, Callsite: cs, Skipped: CPUMemUnmapArgs{Addr: 0x2000, Len: 2, Buf: []byte{9, 8}}},
		{PP: ProgramPoint{Instr: 10}, Kind: KindSkippedCall, Callsite: cs, Skipped: MemRegionChangeArgs{Start: 0x3000, Size: 0x100, MType: MemTypeIO, Added: true, Name: "dev0"}},
		{PP: ProgramPoint{Instr: 11}, Kind: KindSkippedCall, Callsite: cs, Skipped: HDTransferArgs{TransferArgs{Type: 1, Src: 1, Dst: 2, NumBytes: 512}}},
		{PP: ProgramPoint{Instr: 12}, Kind: KindSkippedCall, Callsite: cs, Skipped: NetTransferArgs{TransferArgs{Type: 2, Src: 3, Dst: 4, NumBytes: 1024}}},
		{PP: ProgramPoint{Instr: 13}, Kind: KindSkippedCall, Callsite: cs, Skipped: HandlePacketArgs{Direction: 1, Size: 2, Buf: []byte{0xaa, 0xbb}}},
		{PP: ProgramPoint{Instr: 14}, Kind: KindLast, Callsite: cs},
	}

	lastWritten := writeTestEntries(t, path, in)
	out, headerLast := readAllEntries(t, path)

	if headerLast != lastWritten {
		t.Fatalf("header last PP = %v, want %v", headerLast, lastWritten)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d entries, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].PP != in[i].PP || out[i].Kind != in[i].Kind || out[i].Callsite != in[i].Callsite {
			t.Fatalf("entry %d header mismatch: got %+v, want %+v", i, out[i], in[i])
		}
		if out[i].Value != in[i].Value {
			t.Fatalf("entry %d value mismatch: got %#x, want %#x", i, out[i].Value, in[i].Value)
		}
	}
}

func TestCodecHeaderRewrittenAtClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t2-rr-nondet.log")

	log, err := OpenRecordLog(path)
	if err != nil {
		t.Fatalf("OpenRecordLog: %v", err)
	}
	if err := log.Close(ProgramPoint{Instr: 99}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	replay, err := OpenReplayLog(path)
	if err != nil {
		t.Fatalf("OpenReplayLog: %v", err)
	}
	defer replay.Close(ProgramPoint{})
	if replay.LastProgramPoint().Instr != 99 {
		t.Fatalf("header PP instr = %d, want 99", replay.LastProgramPoint().Instr)
	}
}
