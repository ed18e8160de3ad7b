package service

import "sync"

// keyedMutex serializes ledger read-modify-write sequences per client
// without blocking unrelated clients on each other. Entries are never
// evicted; one mutex per client that ever placed an order is cheap.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the client's mutex and returns its unlock function.
func (k *keyedMutex) Lock(clientID int64) func() {
	k.mu.Lock()
	m, ok := k.locks[clientID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[clientID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
