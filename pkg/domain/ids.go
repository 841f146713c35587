package domain

import (
	"strings"

	dErrors "agora/pkg/domain-errors"
)

// ThemeID identifies a theme. Identifiers are opaque strings issued by the
// portal service ("environment", "42").
type ThemeID string

// ProcessID identifies a process record within its kind.
type ProcessID string

// ParseThemeID constructs a ThemeID from external input.
//
// Errors: returns CodeInvalidInput when the value is blank.
func ParseThemeID(s string) (ThemeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "theme id cannot be empty")
	}
	return ThemeID(s), nil
}

func (id ThemeID) String() string { return string(id) }

// IsNil reports whether the identifier is unset.
func (id ThemeID) IsNil() bool { return id == "" }

func (id ProcessID) String() string { return string(id) }

// IsNil reports whether the identifier is unset.
func (id ProcessID) IsNil() bool { return id == "" }
