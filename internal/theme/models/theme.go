package models

import (
	"agora/internal/i18n"
	"agora/pkg/domain"
)

// Theme is a topical tag shared by processes of any kind. Color and Icon
// are display hints passed through from the portal service.
//
// Themes are immutable once fetched and keyed by ID.
type Theme struct {
	ID    domain.ThemeID       `json:"id"`
	Name  i18n.LocalizedString `json:"name"`
	Color string               `json:"color,omitempty"`
	Icon  string               `json:"icon,omitempty"`
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (t *Theme) Clone() *Theme {
	if t == nil {
		return nil
	}
	out := *t
	out.Name = t.Name.Clone()
	return &out
}
