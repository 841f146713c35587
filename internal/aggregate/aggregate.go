// Package aggregate builds theme-scoped views over independently loaded
// process collections.
//
// Aggregate is a pure function of its inputs. Callers recompute whenever a
// source collection changes; an aggregate built while sources are still
// loading is a valid lower bound, and Complete reports when every source
// has finished (loaded or failed).
package aggregate

import (
	"sort"

	"agora/internal/process/models"
	"agora/pkg/domain"
	pstrings "agora/pkg/platform/strings"
)

// Collection is the latest state of one kind's source.
type Collection struct {
	Loaded bool
	Items  []models.NormalizedProcess
	// Err is set when the latest fetch failed. When Loaded is also set,
	// Items are from the last successful load and the collection is stale.
	Err error
}

// Stale reports whether Items outlived a failed refresh.
func (c Collection) Stale() bool {
	return c.Loaded && c.Err != nil
}

// Finished reports whether the source will not change without a reload.
func (c Collection) Finished() bool {
	return c.Loaded || c.Err != nil
}

// Sources holds one collection per kind. A kind without an entry is "not
// yet loaded".
type Sources map[domain.ProcessKind]Collection

// Counts are derived from bucket lengths and never tracked separately.
type Counts struct {
	Processes    int `json:"processes"`
	Petitions    int `json:"petitions"`
	Votes        int `json:"votes"`
	Signalements int `json:"signalements"`
	YouthPolls   int `json:"youth_polls"`
	Assemblies   int `json:"assemblies"`
	Conferences  int `json:"conferences"`
}

// ThemeAggregate is the view of one theme across all kinds.
//
// Processes merges consultations then legislative consultations, each in
// source order.
type ThemeAggregate struct {
	ThemeID      domain.ThemeID             `json:"theme_id"`
	Processes    []models.NormalizedProcess `json:"processes"`
	Petitions    []models.NormalizedProcess `json:"petitions"`
	Votes        []models.NormalizedProcess `json:"votes"`
	Signalements []models.NormalizedProcess `json:"signalements"`
	YouthPolls   []models.NormalizedProcess `json:"youth_polls"`
	Assemblies   []models.NormalizedProcess `json:"assemblies"`
	Conferences  []models.NormalizedProcess `json:"conferences"`
	Counts       Counts                     `json:"counts"`
	// Pending lists kinds not finished yet, in display order.
	Pending []domain.ProcessKind `json:"pending"`
	// Failed lists kinds whose fetch failed with nothing loaded before,
	// in display order.
	Failed []domain.ProcessKind `json:"failed"`
	// Stale lists kinds still showing items from an earlier load after a
	// failed refresh.
	Stale    []domain.ProcessKind `json:"stale"`
	Complete bool                 `json:"complete"`
}

// Aggregate filters every source to themeID and merges the result.
// Processes without a theme never match. Within each source, items are
// de-duplicated by id keeping the first occurrence.
func Aggregate(themeID domain.ThemeID, sources Sources) ThemeAggregate {
	agg := ThemeAggregate{
		ThemeID:      themeID,
		Processes:    concat(bucket(themeID, sources, domain.KindConsultation), bucket(themeID, sources, domain.KindLegislativeConsultation)),
		Petitions:    bucket(themeID, sources, domain.KindPetition),
		Votes:        bucket(themeID, sources, domain.KindVote),
		Signalements: bucket(themeID, sources, domain.KindSignalement),
		YouthPolls:   bucket(themeID, sources, domain.KindYouthPoll),
		Assemblies:   bucket(themeID, sources, domain.KindAssembly),
		Conferences:  bucket(themeID, sources, domain.KindConference),
		Pending:      []domain.ProcessKind{},
		Failed:       []domain.ProcessKind{},
		Stale:        []domain.ProcessKind{},
	}
	agg.Counts = Counts{
		Processes:    len(agg.Processes),
		Petitions:    len(agg.Petitions),
		Votes:        len(agg.Votes),
		Signalements: len(agg.Signalements),
		YouthPolls:   len(agg.YouthPolls),
		Assemblies:   len(agg.Assemblies),
		Conferences:  len(agg.Conferences),
	}
	for _, kind := range domain.AllProcessKinds() {
		c, ok := sources[kind]
		switch {
		case !ok || !c.Finished():
			agg.Pending = append(agg.Pending, kind)
		case c.Stale():
			agg.Stale = append(agg.Stale, kind)
		case c.Err != nil:
			agg.Failed = append(agg.Failed, kind)
		}
	}
	agg.Complete = len(agg.Pending) == 0
	return agg
}

// ByTheme counts themed items of every kind per theme, using the same
// matching and de-duplication rules as Aggregate. Theme listing pages use
// it for their per-card totals.
func ByTheme(sources Sources) map[domain.ThemeID]int {
	totals := make(map[domain.ThemeID]int)
	for _, kind := range domain.AllProcessKinds() {
		for _, p := range dedupe(sources[kind].Items) {
			if p.HasTheme() {
				totals[p.ThemeID]++
			}
		}
	}
	return totals
}

// ThemeIDs returns the distinct theme ids referenced by loaded sources,
// sorted.
func ThemeIDs(sources Sources) []domain.ThemeID {
	totals := ByTheme(sources)
	ids := make([]domain.ThemeID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func bucket(themeID domain.ThemeID, sources Sources, kind domain.ProcessKind) []models.NormalizedProcess {
	out := []models.NormalizedProcess{}
	if themeID.IsNil() {
		return out
	}
	for _, p := range dedupe(sources[kind].Items) {
		if p.ThemeID == themeID {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(items []models.NormalizedProcess) []models.NormalizedProcess {
	return pstrings.DedupeByKey(items, func(p models.NormalizedProcess) string {
		return p.ID.String()
	})
}

func concat(a, b []models.NormalizedProcess) []models.NormalizedProcess {
	out := make([]models.NormalizedProcess, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
