// queue.go - prefetch queue and recycle pool

package rr

// MaxQueueLen bounds the prefetch queue so a CPU-bound run with no
// boundary events in sight cannot grow it without limit.
const MaxQueueLen = 65536

// queue is a singly-linked FIFO of decoded entries awaiting dispatch to a
// replay_* caller.
type queue struct {
	head, tail *Entry
	len        int
}

func (q *queue) empty() bool { return q.head == nil }

func (q *queue) pushBack(e *Entry) {
	e.next = nil
	if q.tail == nil {
		q.head, q.tail = e, e
	} else {
		q.tail.next = e
		q.tail = e
	}
	q.len++
}

// popFront detaches and returns the head entry, or nil if the queue is
// empty. The caller takes ownership until it recycles the entry.
func (q *queue) popFront() *Entry {
	e := q.head
	if e == nil {
		return nil
	}
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	e.next = nil
	q.len--
	return e
}

// recyclePool is a singly-linked LIFO of entry shells whose payload
// buffers have already been released, reused by readItem to avoid
// allocator churn during long replays.
type recyclePool struct {
	top *Entry
}

func (p *recyclePool) push(e *Entry) {
	releaseTail(e)
	e.reset()
	e.next = p.top
	p.top = e
}

func (p *recyclePool) pop() *Entry {
	e := p.top
	if e == nil {
		return nil
	}
	p.top = e.next
	e.next = nil
	return e
}

// releaseTail drops the reference to any variable-length buffer an entry
// owns, before the shell is pooled. Go's GC reclaims the backing array
// once nothing else references it; this exists so a long chain of pooled
// shells doesn't pin arbitrarily large buffers from ten replays ago.
func releaseTail(e *Entry) {
	switch a := e.Skipped.(type) {
	case CPUMemRWArgs:
		a.Buf = nil
		e.Skipped = a
	case CPUMemUnmapArgs:
		a.Buf = nil
		e.Skipped = a
	case HandlePacketArgs:
		a.Buf = nil
		e.Skipped = a
	}
}

// isBoundary reports whether e is a boundary event: an INTERRUPT_REQUEST,
// or a SKIPPED_CALL recorded at the main-loop-wait call-site. Appending
// one of these is one of fill()'s three stop conditions.
func isBoundary(e *Entry) bool {
	if e.Kind == KindInterruptRequest {
		return true
	}
	if e.Kind == KindSkippedCall && e.Callsite == CallsiteMainLoopWait {
		return true
	}
	return false
}
