package server

// Queue is the matchmaking slot. It holds at most one waiting entry.
type Queue[T comparable] struct {
	waiting T
	full    bool
}

// Join parks v when nobody is waiting. Otherwise it takes the waiting entry
// out of the queue and returns it as v's partner.
func (q *Queue[T]) Join(v T) (partner T, paired bool) {
	if q.full {
		partner = q.waiting
		q.reset()
		return partner, true
	}
	q.waiting = v
	q.full = true
	return partner, false
}

// Remove clears the slot if v is the waiting entry.
func (q *Queue[T]) Remove(v T) bool {
	if !q.full || q.waiting != v {
		return false
	}
	q.reset()
	return true
}

func (q *Queue[T]) Len() int {
	if q.full {
		return 1
	}
	return 0
}

func (q *Queue[T]) reset() {
	var zero T
	q.waiting = zero
	q.full = false
}
