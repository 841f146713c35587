package handler

import (
	"time"

	"agora/internal/aggregate"
	"agora/internal/i18n"
	"agora/internal/process/models"
	"agora/internal/process/status"
	themeModels "agora/internal/theme/models"
	"agora/internal/youth"
	"agora/pkg/domain"
)

// ThemeResponse is a theme with its name resolved to the active language.
type ThemeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// StatusResponse is a classified status with its display label.
type StatusResponse struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Tone     string `json:"tone"`
	Raw      string `json:"raw"`
	Known    bool   `json:"known"`
}

// ProcessResponse is one card-ready process.
type ProcessResponse struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	ThemeID     string             `json:"theme_id,omitempty"`
	Status      StatusResponse     `json:"status"`
	StartDate   *time.Time         `json:"start_date,omitempty"`
	EndDate     *time.Time         `json:"end_date,omitempty"`
	Stats       map[string]float64 `json:"stats"`
	// TargetAge and Eligible are set on youth polls only. Eligible is
	// absent when the viewer's age is unknown and the poll is not open
	// to everyone.
	TargetAge string `json:"target_age,omitempty"`
	Eligible  *bool  `json:"eligible,omitempty"`
}

// AggregateResponse is the theme page payload.
type AggregateResponse struct {
	ThemeID      string            `json:"theme_id"`
	Theme        *ThemeResponse    `json:"theme,omitempty"`
	Language     string            `json:"language"`
	Processes    []ProcessResponse `json:"processes"`
	Petitions    []ProcessResponse `json:"petitions"`
	Votes        []ProcessResponse `json:"votes"`
	Signalements []ProcessResponse `json:"signalements"`
	YouthPolls   []ProcessResponse `json:"youth_polls"`
	Assemblies   []ProcessResponse `json:"assemblies"`
	Conferences  []ProcessResponse `json:"conferences"`
	Counts       aggregate.Counts  `json:"counts"`
	Pending      []string          `json:"pending"`
	Failed       []string          `json:"failed"`
	Stale        []string          `json:"stale"`
	Complete     bool              `json:"complete"`
}

// ProcessListResponse is one normalized collection.
type ProcessListResponse struct {
	Kind   string            `json:"kind"`
	Loaded bool              `json:"loaded"`
	Stale  bool              `json:"stale,omitempty"`
	Items  []ProcessResponse `json:"items"`
}

// AgeResponse reports the viewer age; Age is null when unknown.
type AgeResponse struct {
	Age   *int `json:"age"`
	Known bool `json:"known"`
}

// viewer carries what rendering needs to know about the request.
type viewer struct {
	langs    *i18n.Languages
	lang     domain.Language
	age      int
	ageKnown bool
}

func (v viewer) theme(t *themeModels.Theme) *ThemeResponse {
	if t == nil {
		return nil
	}
	return &ThemeResponse{
		ID:    t.ID.String(),
		Name:  v.langs.Resolve(t.Name, v.lang),
		Color: t.Color,
		Icon:  t.Icon,
	}
}

func (v viewer) status(c status.Classification) StatusResponse {
	return StatusResponse{
		Category: c.Category.String(),
		Label:    status.LabelIn(v.langs, c.Category, v.lang),
		Tone:     string(status.Style(c.Category)),
		Raw:      c.Raw,
		Known:    c.Known,
	}
}

func (v viewer) process(p models.NormalizedProcess) ProcessResponse {
	out := ProcessResponse{
		ID:          p.ID.String(),
		Kind:        p.Kind.String(),
		Title:       v.langs.Resolve(p.Title, v.lang),
		Description: v.langs.Resolve(p.Description, v.lang),
		ThemeID:     p.ThemeID.String(),
		Status:      v.status(status.Classification{Category: p.Status, Raw: p.RawStatus, Known: p.StatusKnown}),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Stats:       map[string]float64{},
	}
	if p.Stats != nil {
		out.Stats = p.Stats.Values()
	}
	if yp, ok := p.Stats.(models.YouthPollStats); ok {
		out.TargetAge = yp.TargetAge
		if target, err := youth.ParseTargetAge(yp.TargetAge); err == nil && (target.All || v.ageKnown) {
			eligible := target.Admits(v.age, v.ageKnown)
			out.Eligible = &eligible
		}
	}
	return out
}

func (v viewer) processes(ps []models.NormalizedProcess) []ProcessResponse {
	out := make([]ProcessResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, v.process(p))
	}
	return out
}

func (v viewer) aggregate(agg aggregate.ThemeAggregate, theme *themeModels.Theme) *AggregateResponse {
	return &AggregateResponse{
		ThemeID:      agg.ThemeID.String(),
		Theme:        v.theme(theme),
		Language:     v.lang.String(),
		Processes:    v.processes(agg.Processes),
		Petitions:    v.processes(agg.Petitions),
		Votes:        v.processes(agg.Votes),
		Signalements: v.processes(agg.Signalements),
		YouthPolls:   v.processes(agg.YouthPolls),
		Assemblies:   v.processes(agg.Assemblies),
		Conferences:  v.processes(agg.Conferences),
		Counts:       agg.Counts,
		Pending:      kindNames(agg.Pending),
		Failed:       kindNames(agg.Failed),
		Stale:        kindNames(agg.Stale),
		Complete:     agg.Complete,
	}
}

func kindNames(kinds []domain.ProcessKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.String())
	}
	return out
}
