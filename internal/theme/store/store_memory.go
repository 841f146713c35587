package store

import (
	"context"
	"sync"

	"agora/internal/theme/models"
	"agora/pkg/domain"
	"agora/pkg/platform/sentinel"
)

// InMemory is the per-process theme cache. Entries are only ever added:
// the first Save for an id wins and later ones are ignored, so readers
// never observe an entry changing under them.
type InMemory struct {
	mu     sync.RWMutex
	themes map[domain.ThemeID]*models.Theme
}

func NewInMemory() *InMemory {
	return &InMemory{themes: make(map[domain.ThemeID]*models.Theme)}
}

// Save stores theme if its id is not cached yet. A nil theme is a no-op.
func (s *InMemory) Save(_ context.Context, theme *models.Theme) error {
	if theme == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.themes[theme.ID]; ok {
		return nil
	}
	s.themes[theme.ID] = theme.Clone()
	return nil
}

// Find returns a copy of the cached theme or sentinel.ErrNotFound.
func (s *InMemory) Find(_ context.Context, id domain.ThemeID) (*models.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.themes[id]; ok {
		return t.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Len returns the number of cached themes.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.themes)
}
