package opstate

import "sync"

// Slot holds the state of one single-flight operation category. Every
// transition bumps a sequence number; a response settles the slot only if
// no newer transition happened since its Begin.
type Slot[T any] struct {
	mu    sync.Mutex
	seq   uint64
	state State[T]
}

// Begin marks the slot busy and returns the ticket the response must present.
func (s *Slot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = Loading[T]()
	return s.seq
}

// Settle stores next if seq is still current. It returns false for a stale
// response, which leaves the slot untouched.
func (s *Slot[T]) Settle(seq uint64, next State[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.state = next
	return true
}

// Set replaces the state and invalidates any in-flight ticket.
func (s *Slot[T]) Set(next State[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = next
}

func (s *Slot[T]) Reset() {
	s.Set(Idle[T]())
}

func (s *Slot[T]) Current() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
