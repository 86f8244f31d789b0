package assets

import "sync"

// Locker is a set of mutexes keyed by asset id. Entries are dropped once no
// one holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[uint]*lockEntry)}
}

func (l *Locker) Lock(id uint) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, id)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
