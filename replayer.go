// replayer.go - prefetch queue filling and the point-match dispatch state machine

package rr

// Replayer is the replay-side oracle: it pulls entries from a Log into a
// prefetch queue and dispatches them to typed replay_* callers only when
// the caller's current program point matches the queue head.
type Replayer struct {
	log  *Log
	q    queue
	pool recyclePool
	host MemoryHost

	cachedInterrupt uint32
}

// NewReplayer wraps an already-opened replay Log. host supplies the
// physical-memory and region primitives skipped-call replay drives; it
// may be nil if the caller never records SKIPPED_CALL entries.
func NewReplayer(log *Log, host MemoryHost) *Replayer {
	return &Replayer{log: log, host: host}
}

// Fill reads entries from the log into the queue until one of three
// cutoffs is reached: the appended entry is INTERRUPT_REQUEST, it is a
// SKIPPED_CALL recorded at the main-loop-wait call-site, or the queue
// already holds more than MaxQueueLen entries. The queue must be empty on
// entry; fill is not incremental top-up, matching the original's
// rr_assert(rr_queue_head == NULL).
func (rp *Replayer) Fill() (err error) {
	defer recoverFatal(&err)
	if !rp.q.empty() {
		return fail("fill called with a non-empty queue")
	}
	for {
		if rp.q.len > MaxQueueLen {
			break
		}
		e, eof, rerr := rp.log.tryReadItem(rp.pool.pop())
		if rerr != nil {
			return rerr
		}
		if eof {
			break
		}
		rp.q.pushBack(e)
		rp.log.stats.noteQueueLen(rp.q.len)
		if isBoundary(e) || e.Kind == KindLast {
			break
		}
	}
	return nil
}

// getNext implements the point-matching dispatcher described in spec.md
// §4.3: it returns the queue head if and only if its program point and
// kind (and, if checkCallsite, its call-site) match what the caller is
// asking for right now. Any other outcome — not due yet, wrong kind,
// wrong call-site — is reported as (nil, false), never an error: this is
// the normal polling control flow, not a failure.
func (rp *Replayer) getNext(kind Kind, now ProgramPoint, callsite CallsiteID, checkCallsite bool) (*Entry, bool, error) {
	if rp.q.empty() {
		if err := rp.Fill(); err != nil {
			return nil, false, err
		}
	}
	if kind != KindInterruptRequest && kind != KindSkippedCall {
		for !rp.q.empty() && rp.q.head.Kind == KindDebug {
			rp.recycle(rp.q.popFront())
		}
	}
	if rp.q.empty() {
		return nil, false, nil
	}
	head := rp.q.head
	if overshoot(kind, head.PP, now) {
		return nil, false, nil
	}
	if !matchesFor(kind, head.PP, now) {
		return nil, false, nil
	}
	if head.Kind != kind {
		return nil, false, nil
	}
	if checkCallsite && head.Callsite != callsite {
		return nil, false, nil
	}
	return rp.q.popFront(), true, nil
}

func (rp *Replayer) recycle(e *Entry) { rp.pool.push(e) }

// ReplayInput delivers the recorded value for an INPUT_N entry at the
// caller's call-site into out. Absence is divergence: the emulator
// requested an input the recording does not have at this program point.
// A due entry attributed to a different call-site is also divergence: the
// two builds disagree about which device is asking.
func (rp *Replayer) ReplayInput(kind Kind, now ProgramPoint, callsite CallsiteID, out *uint64) (err error) {
	defer recoverFatal(&err)
	e, ok, err := rp.getNext(kind, now, callsite, false)
	if err != nil {
		return err
	}
	if !ok {
		return divergence("expected input not found at current program point", now, now, kind)
	}
	if e.Callsite != callsite {
		return divergence("input due but call-site mismatch", now, e.PP, kind)
	}
	*out = e.Value
	rp.recycle(e)
	return nil
}

// ReplayInterruptRequest always writes the cached interrupt word into
// out, updating the cache (and refilling the queue) only when an
// INTERRUPT_REQUEST entry is actually due now. Because record-side
// compaction writes only transitions, the replayer must hold the last
// value between them — this is why the write happens unconditionally.
func (rp *Replayer) ReplayInterruptRequest(now ProgramPoint, callsite CallsiteID, out *uint32) (err error) {
	defer recoverFatal(&err)
	e, ok, err := rp.getNext(KindInterruptRequest, now, callsite, true)
	if err != nil {
		return err
	}
	if ok {
		rp.cachedInterrupt = uint32(e.Value)
		rp.recycle(e)
		if err := rp.Fill(); err != nil {
			return err
		}
	}
	*out = rp.cachedInterrupt
	return nil
}

// ReplayExitRequest writes 0 into out when no EXIT_REQUEST is due, or the
// recorded value otherwise. A call-site mismatch on a due entry is
// fatal: unlike ordinary polling, an exit request that is due but
// attributed to the wrong call-site means the two builds disagree about
// where exits happen.
func (rp *Replayer) ReplayExitRequest(now ProgramPoint, callsite CallsiteID, out *uint32) (err error) {
	defer recoverFatal(&err)
	e, ok, err := rp.getNext(KindExitRequest, now, callsite, false)
	if err != nil {
		return err
	}
	if !ok {
		*out = 0
		return nil
	}
	if e.Callsite != callsite {
		return divergence("exit request due but call-site mismatch", now, e.PP, KindExitRequest)
	}
	*out = uint32(e.Value)
	rp.recycle(e)
	return nil
}

// ReplaySkippedCalls drains and applies every SKIPPED_CALL entry whose
// program point matches now, in queue order. When callsite is
// CallsiteMainLoopWait and draining empties the queue mid-loop, it calls
// Fill again and continues: skipped calls may be arbitrarily bursty at
// the main-loop-wait call-site.
func (rp *Replayer) ReplaySkippedCalls(now ProgramPoint, callsite CallsiteID) (err error) {
	defer recoverFatal(&err)
	for {
		e, ok, err := rp.getNext(KindSkippedCall, now, callsite, false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if applyErr := applySkippedCall(rp.host, e.Skipped); applyErr != nil {
			return applyErr
		}
		rp.recycle(e)
		if callsite == CallsiteMainLoopWait && rp.q.empty() {
			if err := rp.Fill(); err != nil {
				return err
			}
		}
	}
}

// Finished reports whether replay has reached the end of the log: the
// queue head is LAST and the caller's program point has caught up to the
// log's final instruction count.
func (rp *Replayer) Finished(now ProgramPoint) bool {
	return !rp.q.empty() && rp.q.head.Kind == KindLast && now.Instr >= rp.log.LastProgramPoint().Instr
}

// Stats exposes the underlying log's running statistics.
func (rp *Replayer) Stats() *Stats { return rp.log.stats }
