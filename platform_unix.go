//go:build unix

// platform_unix.go - advisory single-writer locking and durable header
// writes, using golang.org/x/sys/unix the way ehrlich-b-go-ublk's queue
// runner reaches past the stdlib for OS-specific guarantees plain os.File
// does not expose.

package rr

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive takes a non-blocking advisory exclusive lock on f, failing
// fast with ErrSessionBusy if another process already holds it. This is
// the enforcement mechanism behind spec.md §5's "exactly one active log
// per process": without it the constraint is documentation only.
func lockExclusive(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrSessionBusy
		}
		return err
	}
	return nil
}

// fsync forces the header write to stable storage so a crash immediately
// after end_record cannot leave a header that disagrees with the log's
// actual tail.
func fsync(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
