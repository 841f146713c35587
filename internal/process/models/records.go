package models

import "agora/internal/i18n"

// Raw records as returned by the portal API listing endpoints. Field names
// follow the upstream JSON; values are passed through the normalizer
// untouched.

// RecordBase holds the fields every kind shares.
type RecordBase struct {
	ID          string               `json:"id"`
	Title       i18n.LocalizedString `json:"title"`
	Description i18n.LocalizedString `json:"description,omitempty"`
	ThemeID     string               `json:"themeId,omitempty"`
	Status      string               `json:"status"`
	StartDate   string               `json:"startDate,omitempty"`
	EndDate     string               `json:"endDate,omitempty"`
}

// RecordID returns the upstream identifier, possibly empty.
func (b RecordBase) RecordID() string { return b.ID }

type ConsultationRecord struct {
	RecordBase
	Contributions int `json:"contributionsCount"`
	Participants  int `json:"participantsCount"`
	Comments      int `json:"commentsCount"`
}

type LegislativeConsultationRecord struct {
	RecordBase
	Contributions int    `json:"contributionsCount"`
	Participants  int    `json:"participantsCount"`
	Comments      int    `json:"commentsCount"`
	LawReference  string `json:"lawReference,omitempty"`
}

type PetitionRecord struct {
	RecordBase
	CurrentSignatures int `json:"currentSignatures"`
	Threshold         int `json:"threshold"`
}

type VoteRecord struct {
	RecordBase
	Participants      int     `json:"participantsCount"`
	ParticipationRate float64 `json:"participationRate"`
	YesVotes          int     `json:"yesVotes"`
	NoVotes           int     `json:"noVotes"`
}

type AssemblyRecord struct {
	RecordBase
	Members  int `json:"membersCount"`
	Meetings int `json:"meetingsCount"`
}

type ConferenceRecord struct {
	RecordBase
	Speakers     int `json:"speakersCount"`
	Participants int `json:"participantsCount"`
}

// SignalementRecord is a citizen report tied to a location.
type SignalementRecord struct {
	RecordBase
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Supports  int     `json:"supportsCount"`
	Comments  int     `json:"commentsCount"`
}

type YouthPollRecord struct {
	RecordBase
	TargetAge string `json:"targetAge"`
	Responses int    `json:"responsesCount"`
}
