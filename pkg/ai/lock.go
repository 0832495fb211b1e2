package ai

import "sync"

/*
keyedMutex hands out one mutex per task id. Entries are dropped when the
last holder or waiter releases them, so idle ids cost nothing.
*/
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*keyedEntry)}
}

// Lock blocks until id is free and returns the matching unlock function.
func (km *keyedMutex) Lock(id string) func() {
	km.mu.Lock()
	entry, ok := km.entries[id]

	if !ok {
		entry = &keyedEntry{}
		km.entries[id] = entry
	}

	entry.refs++
	km.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		km.mu.Lock()
		defer km.mu.Unlock()

		entry.refs--

		if entry.refs == 0 {
			delete(km.entries, id)
		}
	}
}

func (km *keyedMutex) len() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.entries)
}
