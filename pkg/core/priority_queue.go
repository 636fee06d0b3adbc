package core

// Ordered is implemented by values that know their replay order
type Ordered[T any] interface {
	Less(other T) bool
}

// PriorityQueue is a binary min-heap of replay events. Pop returns the
// lowest item according to Less. It is owned by a single replay loop and is
// not safe for concurrent use.
type PriorityQueue[T Ordered[T]] struct {
	items []T
}

// NewPriorityQueue heapifies items in place
func NewPriorityQueue[T Ordered[T]](items ...T) *PriorityQueue[T] {
	q := &PriorityQueue[T]{items: items}
	for i := len(items)/2 - 1; i >= 0; i-- {
		q.sink(i)
	}
	return q
}

// Push adds an item
func (q *PriorityQueue[T]) Push(item T) {
	q.items = append(q.items, item)
	q.swim(len(q.items) - 1)
}

// Pop removes the lowest item. ok is false when the queue is empty.
func (q *PriorityQueue[T]) Pop() (item T, ok bool) {
	n := len(q.items)
	if n == 0 {
		return item, false
	}

	item = q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.sink(0)
	}
	return item, true
}

// Peek returns the lowest item without removing it
func (q *PriorityQueue[T]) Peek() (item T, ok bool) {
	if len(q.items) == 0 {
		return item, false
	}
	return q.items[0], true
}

// Len returns the number of queued items
func (q *PriorityQueue[T]) Len() int {
	return len(q.items)
}

func (q *PriorityQueue[T]) sink(pos int) {
	n := len(q.items)
	for {
		child := 2*pos + 1
		if child >= n {
			return
		}
		if right := child + 1; right < n && q.items[right].Less(q.items[child]) {
			child = right
		}
		if !q.items[child].Less(q.items[pos]) {
			return
		}
		q.items[pos], q.items[child] = q.items[child], q.items[pos]
		pos = child
	}
}

func (q *PriorityQueue[T]) swim(pos int) {
	for pos > 0 {
		parent := (pos - 1) / 2
		if !q.items[pos].Less(q.items[parent]) {
			return
		}
		q.items[pos], q.items[parent] = q.items[parent], q.items[pos]
		pos = parent
	}
}
