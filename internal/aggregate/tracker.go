package aggregate

import (
	"sync"

	"agora/internal/process/models"
	"agora/pkg/domain"
)

// Tracker holds the latest collection of each kind and rebuilds aggregates
// from it on demand. Set replaces the kind's items wholesale; Fail keeps the
// last loaded items and marks them stale. Aggregates are never patched.
//
// Collections are not theme-scoped, so one Tracker serves every theme.
type Tracker struct {
	mu      sync.RWMutex
	sources Sources
	version uint64
}

func NewTracker() *Tracker {
	return &Tracker{sources: make(Sources)}
}

// Set records a finished load of kind.
func (t *Tracker) Set(kind domain.ProcessKind, items []models.NormalizedProcess) {
	cp := append([]models.NormalizedProcess(nil), items...)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[kind] = Collection{Loaded: true, Items: cp}
	t.version++
}

// Fail records a failed load of kind. Items of an earlier successful load
// are kept so a failed refresh does not empty the kind.
func (t *Tracker) Fail(kind domain.ProcessKind, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.sources[kind]
	t.sources[kind] = Collection{Loaded: prev.Loaded, Items: prev.Items, Err: err}
	t.version++
}

// Reset forgets every collection, returning all kinds to "not yet loaded".
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = make(Sources)
	t.version++
}

// Version increases on every change; equal versions mean equal inputs.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Snapshot returns a copy of the current sources.
func (t *Tracker) Snapshot() Sources {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Sources, len(t.sources))
	for k, v := range t.sources {
		out[k] = v
	}
	return out
}

// Collection returns the current collection of kind.
func (t *Tracker) Collection(kind domain.ProcessKind) (Collection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.sources[kind]
	return c, ok
}

// Aggregate recomputes the aggregate of themeID from the current sources.
func (t *Tracker) Aggregate(themeID domain.ThemeID) ThemeAggregate {
	return Aggregate(themeID, t.Snapshot())
}
