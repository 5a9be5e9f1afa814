package folders

import "sync"

// LockSet hands out one RW lock per folder id. Moves into a folder hold its
// shared lock; deleting a folder holds its exclusive lock.
type LockSet struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.RWMutex
	refs int
}

// NewLockSet creates an empty lock set.
func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[string]*refLock)}
}

// RLock acquires the shared lock for id and returns its release func.
func (s *LockSet) RLock(id string) func() {
	l := s.acquire(id)
	l.RLock()
	return func() {
		l.RUnlock()
		s.release(id)
	}
}

// Lock acquires the exclusive lock for id and returns its release func.
func (s *LockSet) Lock(id string) func() {
	l := s.acquire(id)
	l.Lock()
	return func() {
		l.Unlock()
		s.release(id)
	}
}

func (s *LockSet) acquire(id string) *refLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &refLock{}
		s.locks[id] = l
	}
	l.refs++
	return l
}

func (s *LockSet) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

// Len reports how many folder ids currently have a live lock.
func (s *LockSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
