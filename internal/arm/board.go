package arm

import "sync"

// StatusBoard is the read side the HTTP API sees: the loop posts a copy of
// each snapshot here so other goroutines never touch the reader's Status.
type StatusBoard struct {
	mu  sync.RWMutex
	st  Status
	set bool
}

// Set posts a new snapshot.
func (b *StatusBoard) Set(st Status) {
	b.mu.Lock()
	b.st = st
	b.set = true
	b.mu.Unlock()
}

// Get returns the latest snapshot and whether one has ever been posted.
func (b *StatusBoard) Get() (Status, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st, b.set
}
