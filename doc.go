// Package rr implements a non-deterministic event log for deterministic
// record and replay of a full-system machine emulator. A recording
// captures every source of non-determinism a guest CPU observes — device
// input reads, interrupts, DMA-style memory side effects, memory-map
// topology changes — keyed by a monotonically advancing program point.
// During replay the package is the sole oracle for those same
// quantities, reproducing a bit-identical execution trajectory from the
// same initial VM snapshot.
//
// The core pieces are a Recorder (typed record_* capture functions with
// compaction), a Replayer (a prefetch queue and point-matching dispatcher
// over typed replay_* functions), and a Session that sequences the two
// through the OFF/RECORD/REPLAY state machine and owns the paired log and
// snapshot files on disk.
//
// Everything outside this package — the VM snapshot format, CPU
// emulation, the memory object graph — is an external collaborator the
// package consumes through the Clock, MemoryHost, and SnapshotStore
// interfaces; see internal/hostmem for a reference implementation used by
// this package's own tests.
package rr
