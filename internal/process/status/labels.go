package status

import (
	"agora/internal/i18n"
	"agora/internal/process/models"
	"agora/pkg/domain"
)

// Tone is the badge style a category is rendered with.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "neutral"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

var labels = map[models.Status]i18n.LocalizedString{
	models.StatusOpen:             i18n.Text("fr", "Ouvert", "de", "Offen", "en", "Open"),
	models.StatusClosed:           i18n.Text("fr", "Fermé", "de", "Geschlossen", "en", "Closed"),
	models.StatusUpcoming:         i18n.Text("fr", "À venir", "de", "Demnächst", "en", "Upcoming"),
	models.StatusPending:          i18n.Text("fr", "En attente", "de", "Ausstehend", "en", "Pending"),
	models.StatusAccepted:         i18n.Text("fr", "Accepté", "de", "Angenommen", "en", "Accepted"),
	models.StatusRejected:         i18n.Text("fr", "Rejeté", "de", "Abgelehnt", "en", "Rejected"),
	models.StatusCompleted:        i18n.Text("fr", "Terminé", "de", "Abgeschlossen", "en", "Completed"),
	models.StatusThresholdReached: i18n.Text("fr", "Seuil atteint", "de", "Quorum erreicht", "en", "Threshold reached"),
	models.StatusInProgress:       i18n.Text("fr", "En cours", "de", "In Bearbeitung", "en", "In progress"),
}

var tones = map[models.Status]Tone{
	models.StatusOpen:             ToneSuccess,
	models.StatusClosed:           ToneNeutral,
	models.StatusUpcoming:         ToneInfo,
	models.StatusPending:          ToneWarning,
	models.StatusAccepted:         ToneSuccess,
	models.StatusRejected:         ToneDanger,
	models.StatusCompleted:        ToneNeutral,
	models.StatusThresholdReached: ToneSuccess,
	models.StatusInProgress:       ToneInfo,
}

// Label returns the display label of a category in lang, falling back
// through the built-in language order.
func Label(category models.Status, lang domain.Language) string {
	return i18n.ResolveText(labels[category], lang)
}

// LabelIn is Label with the fallback chain of langs.
func LabelIn(langs *i18n.Languages, category models.Status, lang domain.Language) string {
	if langs == nil {
		return Label(category, lang)
	}
	return langs.Resolve(labels[category], lang)
}

// Style returns the badge tone of a category. Categories outside the
// closed set render neutral.
func Style(category models.Status) Tone {
	if tone, ok := tones[category]; ok {
		return tone
	}
	return ToneNeutral
}

// Labeled is a classification with its label and tone resolved.
type Labeled struct {
	Classification
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// ClassifyLabel classifies raw for kind and resolves the label in lang.
func ClassifyLabel(kind domain.ProcessKind, raw string, lang domain.Language) Labeled {
	c := Classify(kind, raw)
	return Labeled{Classification: c, Label: Label(c.Category, lang), Tone: Style(c.Category)}
}
