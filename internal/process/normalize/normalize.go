// Package normalize converts the raw record of each process kind into the
// shared models.NormalizedProcess view.
//
// Every converter passes the identifier and theme identifier through
// unchanged, wraps title and description as provided, classifies the status
// and derives the kind's numeric stats. Converters never mutate their
// input; localized strings are copied.
package normalize

import (
	"errors"
	"fmt"
	"time"

	"agora/internal/process/models"
	"agora/internal/process/status"
	"agora/pkg/domain"
)

// ErrMalformedEntity marks a record that cannot be converted.
var ErrMalformedEntity = errors.New("malformed entity")

func FromConsultation(r models.ConsultationRecord) (models.NormalizedProcess, error) {
	return build(domain.KindConsultation, r.RecordBase, models.ConsultationStats{
		Contributions: r.Contributions,
		Participants:  r.Participants,
		Comments:      r.Comments,
	})
}

func FromLegislativeConsultation(r models.LegislativeConsultationRecord) (models.NormalizedProcess, error) {
	return build(domain.KindLegislativeConsultation, r.RecordBase, models.ConsultationStats{
		Legislative:   true,
		Contributions: r.Contributions,
		Participants:  r.Participants,
		Comments:      r.Comments,
	})
}

func FromPetition(r models.PetitionRecord) (models.NormalizedProcess, error) {
	return build(domain.KindPetition, r.RecordBase, models.PetitionStats{
		CurrentSignatures: r.CurrentSignatures,
		Threshold:         r.Threshold,
		Progress:          Progress(r.CurrentSignatures, r.Threshold),
	})
}

// FromVote keeps the participation rate exactly as reported.
func FromVote(r models.VoteRecord) (models.NormalizedProcess, error) {
	return build(domain.KindVote, r.RecordBase, models.VoteStats{
		Participants:      r.Participants,
		ParticipationRate: r.ParticipationRate,
		YesVotes:          r.YesVotes,
		NoVotes:           r.NoVotes,
	})
}

func FromAssembly(r models.AssemblyRecord) (models.NormalizedProcess, error) {
	return build(domain.KindAssembly, r.RecordBase, models.AssemblyStats{
		Members:  r.Members,
		Meetings: r.Meetings,
	})
}

func FromConference(r models.ConferenceRecord) (models.NormalizedProcess, error) {
	return build(domain.KindConference, r.RecordBase, models.ConferenceStats{
		Speakers:     r.Speakers,
		Participants: r.Participants,
	})
}

func FromSignalement(r models.SignalementRecord) (models.NormalizedProcess, error) {
	return build(domain.KindSignalement, r.RecordBase, models.SignalementStats{
		Supports: r.Supports,
		Comments: r.Comments,
	})
}

// FromYouthPoll keeps the target-age token on the stats; it plays no part
// in aggregation.
func FromYouthPoll(r models.YouthPollRecord) (models.NormalizedProcess, error) {
	return build(domain.KindYouthPoll, r.RecordBase, models.YouthPollStats{
		Responses: r.Responses,
		TargetAge: r.TargetAge,
	})
}

// Progress returns current/threshold clamped to [0, 1]. A non-positive
// threshold yields 0.
func Progress(current, threshold int) float64 {
	if threshold <= 0 || current <= 0 {
		return 0
	}
	p := float64(current) / float64(threshold)
	if p > 1 {
		return 1
	}
	return p
}

func build(kind domain.ProcessKind, base models.RecordBase, stats models.Stats) (models.NormalizedProcess, error) {
	if base.ID == "" {
		return models.NormalizedProcess{}, fmt.Errorf("%w: %s record without id", ErrMalformedEntity, kind)
	}
	if base.Title.IsEmpty() {
		return models.NormalizedProcess{}, fmt.Errorf("%w: %s record %s without title", ErrMalformedEntity, kind, base.ID)
	}
	c := status.Classify(kind, base.Status)
	return models.NormalizedProcess{
		ID:          domain.ProcessID(base.ID),
		Kind:        kind,
		Title:       base.Title.Clone(),
		Description: base.Description.Clone(),
		ThemeID:     domain.ThemeID(base.ThemeID),
		Status:      c.Category,
		RawStatus:   c.Raw,
		StatusKnown: c.Known,
		StartDate:   parseDate(base.StartDate),
		EndDate:     parseDate(base.EndDate),
		Stats:       stats,
	}, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts the upstream date formats; anything else reads as
// "no date" rather than failing the record.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
