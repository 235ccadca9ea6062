package escalation

import "sync"

type lockKey struct {
	ChatID int64
	UserID int64
}

// keyedMutex serializes work per (chat, user) pair. Entries are reference
// counted and removed once the last holder releases, so the map does not
// grow with every offender ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[lockKey]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[lockKey]*lockEntry)}
}

func (k *keyedMutex) lock(key lockKey) *lockEntry {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return entry
}

func (k *keyedMutex) unlock(key lockKey, entry *lockEntry) {
	entry.mu.Unlock()

	k.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
