package domain

import dErrors "agora/pkg/domain-errors"

// ProcessKind tags which kind of participatory process a record is.
// The tag is fixed for the lifetime of a record.
type ProcessKind string

const (
	KindConsultation            ProcessKind = "consultation"
	KindLegislativeConsultation ProcessKind = "legislative_consultation"
	KindPetition                ProcessKind = "petition"
	KindVote                    ProcessKind = "vote"
	KindAssembly                ProcessKind = "assembly"
	KindConference              ProcessKind = "conference"
	KindSignalement             ProcessKind = "signalement"
	KindYouthPoll               ProcessKind = "youth_poll"
)

// allKinds is the single source of truth for valid kinds, in display order.
var allKinds = []ProcessKind{
	KindConsultation,
	KindLegislativeConsultation,
	KindPetition,
	KindVote,
	KindAssembly,
	KindConference,
	KindSignalement,
	KindYouthPoll,
}

// kindSlugs maps kinds to the path segment used by listing endpoints.
var kindSlugs = map[ProcessKind]string{
	KindConsultation:            "consultations",
	KindLegislativeConsultation: "legislative-consultations",
	KindPetition:                "petitions",
	KindVote:                    "votes",
	KindAssembly:                "assemblies",
	KindConference:              "conferences",
	KindSignalement:             "signalements",
	KindYouthPoll:               "youth-polls",
}

// ParseProcessKind accepts either the kind tag ("youth_poll") or its path
// slug ("youth-polls").
//
// Errors: returns CodeInvalidInput when the value names no kind.
func ParseProcessKind(s string) (ProcessKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "process kind cannot be empty")
	}
	k := ProcessKind(s)
	if k.IsValid() {
		return k, nil
	}
	for kind, slug := range kindSlugs {
		if slug == s {
			return kind, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown process kind: "+s)
}

// IsValid reports whether the kind is one of the eight supported kinds.
func (k ProcessKind) IsValid() bool {
	_, ok := kindSlugs[k]
	return ok
}

// Slug returns the listing path segment for the kind.
func (k ProcessKind) Slug() string {
	return kindSlugs[k]
}

func (k ProcessKind) String() string {
	return string(k)
}

// AllProcessKinds returns every kind in display order.
func AllProcessKinds() []ProcessKind {
	return append([]ProcessKind(nil), allKinds...)
}
