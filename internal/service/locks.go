package service

import "sync"

// Locks serializes all operations on the same conversation. The idle
// responder's read-decide-append runs under the same lock as regular
// appends, so concurrent pollers cannot both post a bot reply.
//
// Locks are never removed; the per-participant footprint is one mutex and
// a map entry, and conversation IDs are not unbounded client input in any
// deployment this serves.
type Locks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{m: map[string]*sync.Mutex{}}
}

// Acquire locks the conversation and returns the unlock function.
func (l *Locks) Acquire(participantID string) func() {
	l.mu.Lock()
	cl, ok := l.m[participantID]
	if !ok {
		cl = &sync.Mutex{}
		l.m[participantID] = cl
	}
	l.mu.Unlock()

	cl.Lock()
	return cl.Unlock
}
