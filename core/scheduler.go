package core

// sleepQueue holds blocked tasks sorted by wake time.
// Tasks sharing a wake time are ordered by priority (highest first) and
// then by the order in which they were queued.
type sleepQueue struct {
	head *Task
}

// insert adds t in sorted order
func (q *sleepQueue) insert(t *Task) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if q.head == nil || wakesBefore(t, q.head) {
		t.next = q.head
		q.head = t
		return
	}

	current := q.head
	for current.next != nil && !wakesBefore(t, current.next) {
		current = current.next
	}

	t.next = current.next
	current.next = t
}

// popDue removes and returns the first task whose wake time has been reached
func (q *sleepQueue) popDue(now Tick) *Task {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	t := q.head
	if t == nil || TickBefore(now, t.wakeAt) {
		return nil
	}
	q.head = t.next
	t.next = nil
	return t
}

// len counts queued tasks
func (q *sleepQueue) len() int {
	n := 0
	for t := q.head; t != nil; t = t.next {
		n++
	}
	return n
}

// wakesBefore orders a ahead of b
func wakesBefore(a, b *Task) bool {
	if a.wakeAt != b.wakeAt {
		return TickBefore(a.wakeAt, b.wakeAt)
	}
	return a.priority > b.priority
}
