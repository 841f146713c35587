// Package i18n resolves multi-language text bundles to a single display
// string for the active language.
//
// Resolution order for a LocalizedString L and language ℓ:
//
//  1. L[ℓ] when non-empty
//  2. the configured default language's entry when non-empty
//  3. the first non-empty entry in the configured language order
//  4. "" when every entry is empty
//
// Only the empty string counts as missing; whitespace is text and is
// returned as stored. Resolution never fails. Codes outside the configured set are carried but
// never selected.
package i18n

import "agora/pkg/domain"

// LocalizedString maps language codes to text. Values are built once at
// ingestion and treated as read-only afterwards.
type LocalizedString map[domain.Language]string

// Text builds a LocalizedString from code/text pairs:
//
//	i18n.Text("fr", "Environnement", "de", "Umwelt")
//
// A trailing unpaired value is ignored.
func Text(pairs ...string) LocalizedString {
	out := make(LocalizedString, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[domain.Language(pairs[i])] = pairs[i+1]
	}
	return out
}

// IsEmpty reports whether every entry is the empty string.
func (s LocalizedString) IsEmpty() bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s LocalizedString) Clone() LocalizedString {
	if s == nil {
		return nil
	}
	out := make(LocalizedString, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s LocalizedString) get(lang domain.Language) (string, bool) {
	v, ok := s[lang]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
