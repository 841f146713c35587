// Package status maps each process kind's raw status vocabulary onto the
// closed set of normalized categories and gives every category a label in
// each supported language.
//
// Tokens are matched after trimming and lowercasing. A token shared by
// several kinds always maps to the same category; where a kind overloads a
// token ("active" on assemblies and conferences) the table aliases it to
// the shared category instead of adding a new one.
//
// Tokens missing from a kind's table classify as pending with Known=false.
// Whether such tokens are deliberate server additions or upstream bugs is
// not decided here: callers log and publish them for diagnosis.
package status

import (
	"strings"

	"agora/internal/process/models"
	"agora/pkg/domain"
)

// Classification is the result of classifying one raw token.
type Classification struct {
	Category models.Status `json:"category"`
	// Raw is the token as received, before trimming or lowercasing.
	Raw   string `json:"raw"`
	Known bool   `json:"known"`
}

// Fallback is the category for tokens missing from a kind's table.
const Fallback = models.StatusPending

var (
	open             = models.StatusOpen
	closed           = models.StatusClosed
	upcoming         = models.StatusUpcoming
	pending          = models.StatusPending
	accepted         = models.StatusAccepted
	rejected         = models.StatusRejected
	completed        = models.StatusCompleted
	thresholdReached = models.StatusThresholdReached
	inProgress       = models.StatusInProgress
)

// tables is the complete per-kind vocabulary.
var tables = map[domain.ProcessKind]map[string]models.Status{
	domain.KindConsultation: {
		"open":      open,
		"closed":    closed,
		"upcoming":  upcoming,
		"completed": completed,
	},
	domain.KindLegislativeConsultation: {
		"open":        open,
		"closed":      closed,
		"upcoming":    upcoming,
		"in_progress": inProgress,
		"completed":   completed,
	},
	domain.KindPetition: {
		"open":               open,
		"closed":             closed,
		"pending":            pending,
		"under_review":       inProgress,
		"accepted":           accepted,
		"rejected":           rejected,
		"threshold_reached":  thresholdReached,
		"signatures_reached": thresholdReached,
	},
	domain.KindVote: {
		"upcoming":  upcoming,
		"open":      open,
		"closed":    closed,
		"completed": completed,
		"accepted":  accepted,
		"rejected":  rejected,
	},
	domain.KindAssembly: {
		"active":    open,
		"open":      open,
		"upcoming":  upcoming,
		"closed":    closed,
		"completed": completed,
	},
	domain.KindConference: {
		"active":    open,
		"open":      open,
		"upcoming":  upcoming,
		"closed":    closed,
		"completed": completed,
	},
	domain.KindSignalement: {
		"new":         pending,
		"pending":     pending,
		"in_progress": inProgress,
		"resolved":    completed,
		"completed":   completed,
		"rejected":    rejected,
		"closed":      closed,
	},
	domain.KindYouthPoll: {
		"upcoming":  upcoming,
		"open":      open,
		"closed":    closed,
		"completed": completed,
	},
}

// Classify maps a raw token for kind onto a category. It is pure and total:
// unknown kinds and unknown tokens yield Fallback with Known=false.
func Classify(kind domain.ProcessKind, raw string) Classification {
	token := strings.ToLower(strings.TrimSpace(raw))
	if category, ok := tables[kind][token]; ok {
		return Classification{Category: category, Raw: raw, Known: true}
	}
	return Classification{Category: Fallback, Raw: raw, Known: false}
}

// Vocabulary returns the raw tokens known for kind, mapped to their
// categories. The returned map is a copy.
func Vocabulary(kind domain.ProcessKind) map[string]models.Status {
	table := tables[kind]
	out := make(map[string]models.Status, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
