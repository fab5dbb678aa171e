// ABOUTME: Keyed mutexes shared by the router and the background sweeps
// ABOUTME: so every mutation of one user's record is serialized
package locks

import "sync"

// Keyed hands out one mutex per key. The router's message turns and the
// training sweeps acquire the same lock for a user id, so a turn can
// never commit between a sweep's read and its save.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for key and returns its unlock func.
// Locks are never reclaimed; the per-key footprint is one mutex.
func (k *Keyed) Acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
