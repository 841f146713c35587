package models

import (
	"time"

	"agora/internal/i18n"
	"agora/pkg/domain"
)

// NormalizedProcess is the common, theme-taggable view of any process kind.
//
// Invariants:
//   - Kind never changes after construction and decides the concrete Stats type
//   - ThemeID is empty when the record carries no theme
//   - Status is always one of AllStatuses(); RawStatus keeps the server token
type NormalizedProcess struct {
	ID          domain.ProcessID     `json:"id"`
	Kind        domain.ProcessKind   `json:"kind"`
	Title       i18n.LocalizedString `json:"title"`
	Description i18n.LocalizedString `json:"description,omitempty"`
	ThemeID     domain.ThemeID       `json:"theme_id,omitempty"`
	Status      Status               `json:"status"`
	RawStatus   string               `json:"raw_status"`
	// StatusKnown is false when RawStatus was not in the classification
	// table and Status fell back to pending.
	StatusKnown bool       `json:"status_known"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Stats       Stats      `json:"stats"`
}

// HasTheme reports whether the process is tagged with a theme.
func (p NormalizedProcess) HasTheme() bool {
	return !p.ThemeID.IsNil()
}

// Stats is the kind-specific numeric bag. The concrete type is fixed by
// the process kind; Values exposes the numbers generically for display.
type Stats interface {
	Kind() domain.ProcessKind
	Values() map[string]float64
}

// ConsultationStats covers consultations and legislative consultations.
type ConsultationStats struct {
	Legislative   bool `json:"-"`
	Contributions int  `json:"contributions"`
	Participants  int  `json:"participants"`
	Comments      int  `json:"comments"`
}

func (s ConsultationStats) Kind() domain.ProcessKind {
	if s.Legislative {
		return domain.KindLegislativeConsultation
	}
	return domain.KindConsultation
}

func (s ConsultationStats) Values() map[string]float64 {
	return map[string]float64{
		"contributions": float64(s.Contributions),
		"participants":  float64(s.Participants),
		"comments":      float64(s.Comments),
	}
}

// PetitionStats carries signature progress. Progress is in [0, 1].
type PetitionStats struct {
	CurrentSignatures int     `json:"current_signatures"`
	Threshold         int     `json:"threshold"`
	Progress          float64 `json:"progress"`
}

func (PetitionStats) Kind() domain.ProcessKind { return domain.KindPetition }

func (s PetitionStats) Values() map[string]float64 {
	return map[string]float64{
		"current_signatures": float64(s.CurrentSignatures),
		"threshold":          float64(s.Threshold),
		"progress":           s.Progress,
	}
}

// VoteStats carries ballot figures as reported by the server.
type VoteStats struct {
	Participants      int     `json:"participants"`
	ParticipationRate float64 `json:"participation_rate"`
	YesVotes          int     `json:"yes_votes"`
	NoVotes           int     `json:"no_votes"`
}

func (VoteStats) Kind() domain.ProcessKind { return domain.KindVote }

func (s VoteStats) Values() map[string]float64 {
	return map[string]float64{
		"participants":       float64(s.Participants),
		"participation_rate": s.ParticipationRate,
		"yes_votes":          float64(s.YesVotes),
		"no_votes":           float64(s.NoVotes),
	}
}

type AssemblyStats struct {
	Members  int `json:"members"`
	Meetings int `json:"meetings"`
}

func (AssemblyStats) Kind() domain.ProcessKind { return domain.KindAssembly }

func (s AssemblyStats) Values() map[string]float64 {
	return map[string]float64{
		"members":  float64(s.Members),
		"meetings": float64(s.Meetings),
	}
}

type ConferenceStats struct {
	Speakers     int `json:"speakers"`
	Participants int `json:"participants"`
}

func (ConferenceStats) Kind() domain.ProcessKind { return domain.KindConference }

func (s ConferenceStats) Values() map[string]float64 {
	return map[string]float64{
		"speakers":     float64(s.Speakers),
		"participants": float64(s.Participants),
	}
}

type SignalementStats struct {
	Supports int `json:"supports"`
	Comments int `json:"comments"`
}

func (SignalementStats) Kind() domain.ProcessKind { return domain.KindSignalement }

func (s SignalementStats) Values() map[string]float64 {
	return map[string]float64{
		"supports": float64(s.Supports),
		"comments": float64(s.Comments),
	}
}

// YouthPollStats also carries the poll's target-age token ("all", "12-15",
// "16+"). The token is informational; aggregation ignores it.
type YouthPollStats struct {
	Responses int    `json:"responses"`
	TargetAge string `json:"target_age"`
}

func (YouthPollStats) Kind() domain.ProcessKind { return domain.KindYouthPoll }

func (s YouthPollStats) Values() map[string]float64 {
	return map[string]float64{"responses": float64(s.Responses)}
}
