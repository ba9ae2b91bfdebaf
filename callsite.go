// callsite.go - call-site identifiers and the boundary sentinel

package rr

import (
	"fmt"
	"sync"
)

// CallsiteID names the location in the emulator that produced or expects an
// event. It is compiled into both the recorder and the replayer; a mismatch
// between the two builds is only detectable by a check-callsite assertion
// firing during replay.
type CallsiteID uint32

const (
	// CallsiteUnknown names no real call-site; Session.EndRecord uses it
	// for the LAST entry. Being zero, it keeps a zero-value CallsiteID
	// from matching some real call-site in a check-callsite comparison.
	CallsiteUnknown CallsiteID = 0

	// CallsiteMainLoopWait is the boundary call-site: a SKIPPED_CALL
	// recorded here terminates a fill() pass, matching the original's
	// RR_CALLSITE_MAIN_LOOP_WAIT cutoff.
	CallsiteMainLoopWait CallsiteID = 1
)

var (
	callsiteNamesMu sync.RWMutex
	callsiteNames   = map[CallsiteID]string{
		CallsiteUnknown:       "unknown",
		CallsiteMainLoopWait:  "main_loop_wait",
	}
	nextCallsiteID CallsiteID = 2
)

// RegisterCallsite allocates and names a new call-site id. Emulator code
// calls this once at init time per call-site and stores the returned id in
// a package-level constant of its own; the name is used only for
// diagnostics and log dumps, never for matching.
func RegisterCallsite(name string) CallsiteID {
	callsiteNamesMu.Lock()
	defer callsiteNamesMu.Unlock()
	id := nextCallsiteID
	nextCallsiteID++
	callsiteNames[id] = name
	return id
}

// CallsiteName returns the registered name for id, or a synthetic one if it
// was never registered (e.g. a log produced by a build with more call-sites
// than the reading build knows about).
func CallsiteName(id CallsiteID) string {
	callsiteNamesMu.RLock()
	defer callsiteNamesMu.RUnlock()
	if name, ok := callsiteNames[id]; ok {
		return name
	}
	return fmt.Sprintf("callsite(%d)", uint32(id))
}
