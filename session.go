// session.go - the record/replay state machine and session filenames

package rr

import (
	"errors"
	"fmt"
	"path/filepath"
)

// SessionState is OFF, RECORD, or REPLAY, the three states spec.md §4.5
// names for the controller.
type SessionState int

const (
	StateOff SessionState = iota
	StateRecord
	StateReplay
)

func (s SessionState) String() string {
	switch s {
	case StateRecord:
		return "RECORD"
	case StateReplay:
		return "REPLAY"
	default:
		return "OFF"
	}
}

var (
	// ErrSessionBusy is returned when a log file is already locked by
	// another session, enforcing spec.md §5's single-active-log
	// constraint.
	ErrSessionBusy = errors.New("rr: a session is already active on this log")
	// ErrWrongState is returned when a control-surface command is
	// invoked in a state that does not permit it (e.g. end_record
	// while OFF).
	ErrWrongState = errors.New("rr: session is not in the required state")
	// ErrNoSnapshot is returned when replay is requested for a base
	// name with no matching snapshot file.
	ErrNoSnapshot = errors.New("rr: no snapshot found for replay")
)

// SnapshotStore is the external collaborator that saves and restores a VM
// snapshot, the out-of-scope "VM snapshot save/load format" spec.md §1
// names. internal/hostmem provides a gzip-compressed reference
// implementation adapted from the teacher's debug_snapshot.go for tests
// and the cmd/rrlog demo path.
type SnapshotStore interface {
	Save(path string) error
	Load(path string) error
	Exists(path string) bool
}

// LogFilename returns the nondeterminism log path for base name base in
// directory dir: D/B-rr-nondet.log.
func LogFilename(dir, base string) string {
	return filepath.Join(dir, base+"-rr-nondet.log")
}

// SnapshotFilename returns the paired VM snapshot path: D/B-rr-snp.
func SnapshotFilename(dir, base string) string {
	return filepath.Join(dir, base+"-rr-snp")
}

// Session is the lifecycle-managed object spec.md §9 recommends in place
// of raw process-wide globals: the mode flag, the active log, and the
// recorder/replayer it owns are all fields here, constructed on begin and
// torn down on end.
type Session struct {
	state SessionState

	dir  string
	base string

	log      *Log
	recorder *Recorder
	replayer *Replayer

	snapshots SnapshotStore
	clock     Clock
	host      MemoryHost
	reporter  *Reporter
}

// NewSession wires the external collaborators a Session needs. reporter
// may be nil, in which case progress and divergence output is discarded.
func NewSession(snapshots SnapshotStore, clock Clock, host MemoryHost, reporter *Reporter) *Session {
	if reporter == nil {
		reporter = NewReporter(discardWriter{})
	}
	return &Session{state: StateOff, snapshots: snapshots, clock: clock, host: host, reporter: reporter}
}

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// Recorder returns the active Recorder, or nil outside RECORD.
func (s *Session) Recorder() *Recorder { return s.recorder }

// Replayer returns the active Replayer, or nil outside REPLAY.
func (s *Session) Replayer() *Replayer { return s.replayer }

// BeginRecord snapshots the current VM state and opens a new log for
// base name base in directory dir.
func (s *Session) BeginRecord(dir, base string) error {
	if s.state != StateOff {
		return ErrWrongState
	}
	snapPath := SnapshotFilename(dir, base)
	if err := s.snapshots.Save(snapPath); err != nil {
		return fmt.Errorf("rr: save snapshot %q: %w", snapPath, err)
	}
	return s.openRecordLocked(dir, base)
}

// BeginRecordFrom loads an existing snapshot, takes a fresh snapshot
// under base's own name, and opens a new log — record_from semantics.
func (s *Session) BeginRecordFrom(dir, base, fromSnapshot string) error {
	if s.state != StateOff {
		return ErrWrongState
	}
	if !s.snapshots.Exists(fromSnapshot) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, fromSnapshot)
	}
	if err := s.snapshots.Load(fromSnapshot); err != nil {
		return fmt.Errorf("rr: load snapshot %q: %w", fromSnapshot, err)
	}
	snapPath := SnapshotFilename(dir, base)
	if err := s.snapshots.Save(snapPath); err != nil {
		return fmt.Errorf("rr: save snapshot %q: %w", snapPath, err)
	}
	return s.openRecordLocked(dir, base)
}

func (s *Session) openRecordLocked(dir, base string) error {
	log, err := OpenRecordLog(LogFilename(dir, base))
	if err != nil {
		return err
	}
	s.dir, s.base = dir, base
	s.log = log
	s.recorder = NewRecorder(log, s.clock)
	s.state = StateRecord
	return nil
}

// EndRecord writes the LAST sentinel, rewrites the header with the final
// program point, and closes the log.
func (s *Session) EndRecord() (err error) {
	defer recoverFatal(&err)
	if s.state != StateRecord {
		return ErrWrongState
	}
	if err := s.recorder.RecordLast(CallsiteUnknown); err != nil {
		return err
	}
	finalPP := s.recorder.LastProgramPoint()
	if err := s.log.Close(finalPP); err != nil {
		return err
	}
	s.log, s.recorder = nil, nil
	s.state = StateOff
	return nil
}

// BeginReplay loads the paired snapshot, opens the log read-only, and
// primes the prefetch queue.
func (s *Session) BeginReplay(dir, base string) (err error) {
	defer recoverFatal(&err)
	if s.state != StateOff {
		return ErrWrongState
	}
	snapPath := SnapshotFilename(dir, base)
	if !s.snapshots.Exists(snapPath) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, snapPath)
	}
	if err := s.snapshots.Load(snapPath); err != nil {
		return fmt.Errorf("rr: load snapshot %q: %w", snapPath, err)
	}
	log, err := OpenReplayLog(LogFilename(dir, base))
	if err != nil {
		return err
	}
	s.dir, s.base = dir, base
	s.log = log
	s.replayer = NewReplayer(log, s.host)
	s.state = StateReplay
	if err := s.replayer.Fill(); err != nil {
		return err
	}
	return nil
}

// EndReplay drains the queue and recycle pool, prints final statistics,
// and releases the log.
func (s *Session) EndReplay() error {
	if s.state != StateReplay {
		return ErrWrongState
	}
	s.reporter.Stats(s.log.stats)
	err := s.log.Close(ProgramPoint{})
	s.log, s.replayer = nil, nil
	s.state = StateOff
	return err
}

// PollProgress reports percent-complete if an integer boundary has been
// crossed since the last call, using now as the current instruction
// count. Callers invoke this from the same loop that drives Fill.
func (s *Session) PollProgress(now ProgramPoint) {
	if s.log == nil {
		return
	}
	if percent, crossed := s.log.stats.Progress(now.Instr, s.log.LastProgramPoint().Instr); crossed {
		s.reporter.Progress(percent)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
