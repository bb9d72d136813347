package scheduler

import "sync"

// InflightSet tracks which sources currently have a job somewhere between
// submission and terminal state. The scheduler consults it before enqueueing
// so one source never has two overlapping jobs; the queue's terminal hook
// releases the slot.
type InflightSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewInflightSet creates an empty set.
func NewInflightSet() *InflightSet {
	return &InflightSet{ids: make(map[string]struct{})}
}

// TryAdd claims the slot for sourceID. It returns false when the source
// already has a job in flight.
func (s *InflightSet) TryAdd(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[sourceID]; ok {
		return false
	}
	s.ids[sourceID] = struct{}{}
	return true
}

// Remove releases the slot. Removing an absent id is a no-op.
func (s *InflightSet) Remove(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, sourceID)
}

// Contains reports whether the source has a job in flight.
func (s *InflightSet) Contains(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[sourceID]
	return ok
}

// Len returns the number of sources with jobs in flight.
func (s *InflightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
