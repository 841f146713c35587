// Package youth derives a viewer's age from a persisted profile and
// decides youth-poll eligibility for presentation.
//
// Age never filters theme aggregation; it is only consulted when a page
// decides how to display a youth poll.
package youth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/sentinel"
)

// ProfileKey is the key the profile record is persisted under.
const ProfileKey = "profile"

// Profile is the persisted viewer profile. Only the birthdate is read.
type Profile struct {
	Birthdate string `json:"birthdate,omitempty"`
}

var birthdateLayouts = []string{"2006-01-02", time.RFC3339}

// BirthDate parses the stored birthdate. ok is false when it is absent or
// unparseable.
func (p *Profile) BirthDate() (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	raw := strings.TrimSpace(p.Birthdate)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range birthdateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeFor returns the whole years elapsed between the profile birthdate and
// now. It returns (0, false) without a profile, without a birthdate, or
// when the birthdate lies in the future.
func AgeFor(profile *Profile, now time.Time) (int, bool) {
	born, ok := profile.BirthDate()
	if !ok {
		return 0, false
	}
	y1, m1, d1 := born.Date()
	y2, m2, d2 := now.In(born.Location()).Date()
	age := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// TargetAge is a parsed youth-poll audience: everyone, a closed range
// ("12-15"), an open range ("16+") or a single age ("14").
type TargetAge struct {
	All bool
	Min int
	Max int // -1 for open ranges
}

// ParseTargetAge parses the targetAge token of a youth poll. An empty
// token means everyone.
func ParseTargetAge(s string) (TargetAge, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" || raw == "all" {
		return TargetAge{All: true}, nil
	}
	if lo, ok := strings.CutSuffix(raw, "+"); ok {
		low, err := parseAge(lo)
		if err != nil {
			return TargetAge{}, invalidTarget(s)
		}
		return TargetAge{Min: low, Max: -1}, nil
	}
	if lo, hi, ok := strings.Cut(raw, "-"); ok {
		low, err := parseAge(lo)
		if err != nil {
			return TargetAge{}, invalidTarget(s)
		}
		high, err := parseAge(hi)
		if err != nil || high < low {
			return TargetAge{}, invalidTarget(s)
		}
		return TargetAge{Min: low, Max: high}, nil
	}
	age, err := parseAge(raw)
	if err != nil {
		return TargetAge{}, invalidTarget(s)
	}
	return TargetAge{Min: age, Max: age}, nil
}

func parseAge(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative age")
	}
	return n, nil
}

func invalidTarget(s string) error {
	return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid target age %q", s))
}

// Admits reports whether a viewer of the given age belongs to the
// audience. An unknown age only belongs to an "all" audience.
func (t TargetAge) Admits(age int, known bool) bool {
	if t.All {
		return true
	}
	if !known || age < t.Min {
		return false
	}
	return t.Max < 0 || age <= t.Max
}

// Eligible reports whether a viewer may take a poll targeted at target.
// Unparseable targets admit nobody but "all"-style audiences.
func Eligible(target string, age int, known bool) bool {
	t, err := ParseTargetAge(target)
	if err != nil {
		return false
	}
	return t.Admits(age, known)
}

// ProfileStore reads the persisted profile. The core never writes it.
type ProfileStore interface {
	Load(ctx context.Context, key string) (*Profile, error)
}

// Ages computes the viewer age on demand from a ProfileStore.
type Ages struct {
	profiles ProfileStore
	now      func() time.Time
}

type Option func(*Ages)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Ages) {
		a.now = now
	}
}

func NewAges(profiles ProfileStore, opts ...Option) *Ages {
	a := &Ages{profiles: profiles, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Current returns the viewer age. A missing profile is not an error:
// it yields (0, false, nil). The result is never cached.
func (a *Ages) Current(ctx context.Context) (int, bool, error) {
	profile, err := a.profiles.Load(ctx, ProfileKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load profile: %w", err)
	}
	age, ok := AgeFor(profile, a.now())
	return age, ok, nil
}
