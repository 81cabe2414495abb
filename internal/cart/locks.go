package cart

import "sync"

// Locks hands out one mutex per slot key so that short-lived Stores opened
// over the same key serialise their read-modify-write cycles. Entries are
// dropped once no holder or waiter remains. The zero value is ready to use.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locker returns a sync.Locker bound to key.
func (l *Locks) Locker(key string) sync.Locker {
	return keyLock{locks: l, key: key}
}

// Len reports how many keys are currently held or awaited.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locks) lock(key string) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*lockEntry)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *Locks) unlock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		l.mu.Unlock()
		panic("cart: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

type keyLock struct {
	locks *Locks
	key   string
}

func (k keyLock) Lock()   { k.locks.lock(k.key) }
func (k keyLock) Unlock() { k.locks.unlock(k.key) }
