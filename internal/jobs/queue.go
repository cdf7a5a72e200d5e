package jobs

// Queue is a FIFO backlog. It is not safe for concurrent use; the coordinator
// guards it with its own mutex.
type Queue[T any] struct {
	items []T
}

// Push appends item at the tail.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
}

// PushFront puts item at the head so it is drained next.
func (q *Queue[T]) PushFront(item T) {
	q.items = append([]T{item}, q.items...)
}

// Pop removes and returns the head.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Clear empties the queue and returns what was in it, head first.
func (q *Queue[T]) Clear() []T {
	items := q.items
	q.items = nil
	return items
}

// Snapshot returns a copy of the queued items, head first.
func (q *Queue[T]) Snapshot() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
