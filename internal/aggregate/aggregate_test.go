package aggregate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/i18n"
	"agora/internal/process/models"
	"agora/internal/process/normalize"
	"agora/pkg/domain"
)

const environment = domain.ThemeID("environment")

func rec(id, themeID, status string) models.RecordBase {
	return models.RecordBase{ID: id, Title: i18n.Text("fr", id), ThemeID: themeID, Status: status}
}

// must unwraps a converter result, failing t on error.
func must(t *testing.T) func(models.NormalizedProcess, error) models.NormalizedProcess {
	return func(p models.NormalizedProcess, err error) models.NormalizedProcess {
		t.Helper()
		require.NoError(t, err)
		return p
	}
}

func consultations(t *testing.T) []models.NormalizedProcess {
	return []models.NormalizedProcess{
		must(t)(normalize.FromConsultation(models.ConsultationRecord{RecordBase: rec("c1", "environment", "open")})),
		must(t)(normalize.FromConsultation(models.ConsultationRecord{RecordBase: rec("c2", "mobility", "open")})),
		must(t)(normalize.FromConsultation(models.ConsultationRecord{RecordBase: rec("c3", "environment", "closed")})),
	}
}

func petitions(t *testing.T) []models.NormalizedProcess {
	return []models.NormalizedProcess{
		must(t)(normalize.FromPetition(models.PetitionRecord{RecordBase: rec("p1", "environment", "open"), CurrentSignatures: 450, Threshold: 1000})),
	}
}

// TestAggregate_EnvironmentScenario checks the documented theme page case:
// consultations and a petition loaded, votes still loading.
func TestAggregate_EnvironmentScenario(t *testing.T) {
	sources := Sources{
		domain.KindConsultation: {Loaded: true, Items: consultations(t)},
		domain.KindPetition:     {Loaded: true, Items: petitions(t)},
	}

	agg := Aggregate(environment, sources)

	require.Len(t, agg.Processes, 2)
	assert.Equal(t, domain.ProcessID("c1"), agg.Processes[0].ID)
	assert.Equal(t, domain.ProcessID("c3"), agg.Processes[1].ID)
	require.Len(t, agg.Petitions, 1)
	assert.InDelta(t, 0.45, agg.Petitions[0].Stats.(models.PetitionStats).Progress, 1e-9)
	assert.Empty(t, agg.Votes)
	assert.Equal(t, 2, agg.Counts.Processes)
	assert.Equal(t, 1, agg.Counts.Petitions)
	assert.Equal(t, 0, agg.Counts.Votes)
	assert.Contains(t, agg.Pending, domain.KindVote)
	assert.False(t, agg.Complete)
}

func TestAggregate_MergesProcessSources(t *testing.T) {
	legislative := []models.NormalizedProcess{
		must(t)(normalize.FromLegislativeConsultation(models.LegislativeConsultationRecord{RecordBase: rec("l1", "environment", "in_progress")})),
		must(t)(normalize.FromLegislativeConsultation(models.LegislativeConsultationRecord{RecordBase: rec("c1", "environment", "open")})),
	}
	sources := Sources{
		domain.KindLegislativeConsultation: {Loaded: true, Items: legislative},
		domain.KindConsultation:            {Loaded: true, Items: consultations(t)},
	}

	agg := Aggregate(environment, sources)

	ids := make([]domain.ProcessID, 0, len(agg.Processes))
	for _, p := range agg.Processes {
		ids = append(ids, p.ID)
	}
	// Consultations first, then legislative consultations; an id shared
	// across the two kinds names two different processes.
	assert.Equal(t, []domain.ProcessID{"c1", "c3", "l1", "c1"}, ids)
	assert.Equal(t, 4, agg.Counts.Processes)
}

func TestAggregate_Idempotent(t *testing.T) {
	sources := Sources{
		domain.KindConsultation: {Loaded: true, Items: consultations(t)},
		domain.KindPetition:     {Loaded: true, Items: petitions(t)},
		domain.KindVote:         {Err: errors.New("timeout")},
	}

	first, err := json.Marshal(Aggregate(environment, sources))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(environment, sources))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAggregate_Dedupe(t *testing.T) {
	items := consultations(t)
	dup := items[0]
	dup.Title = i18n.Text("fr", "duplicate")
	items = append(items, dup)

	agg := Aggregate(environment, Sources{domain.KindConsultation: {Loaded: true, Items: items}})

	require.Len(t, agg.Processes, 2)
	assert.Equal(t, "c1", agg.Processes[0].Title[domain.LanguageFrench], "first occurrence must win")
}

func TestAggregate_ThemelessNeverMatches(t *testing.T) {
	items := []models.NormalizedProcess{
		must(t)(normalize.FromSignalement(models.SignalementRecord{RecordBase: rec("s1", "", "new")})),
	}
	sources := Sources{domain.KindSignalement: {Loaded: true, Items: items}}

	assert.Empty(t, Aggregate(environment, sources).Signalements)
	assert.Empty(t, Aggregate("", sources).Signalements)
}

// TestAggregate_PartialLoadMonotonic verifies that buckets only grow as
// sources arrive, and that the partial buckets are prefixes of the final ones.
func TestAggregate_PartialLoadMonotonic(t *testing.T) {
	votes := []models.NormalizedProcess{
		must(t)(normalize.FromVote(models.VoteRecord{RecordBase: rec("v1", "environment", "open")})),
	}
	signalements := []models.NormalizedProcess{
		must(t)(normalize.FromSignalement(models.SignalementRecord{RecordBase: rec("s1", "environment", "new")})),
	}
	polls := []models.NormalizedProcess{
		must(t)(normalize.FromYouthPoll(models.YouthPollRecord{RecordBase: rec("y1", "environment", "open"), TargetAge: "all"})),
	}

	partial := Aggregate(environment, Sources{
		domain.KindConsultation: {Loaded: true, Items: consultations(t)},
		domain.KindVote:         {Loaded: true, Items: votes},
	})
	full := Aggregate(environment, Sources{
		domain.KindConsultation:            {Loaded: true, Items: consultations(t)},
		domain.KindLegislativeConsultation: {Loaded: true},
		domain.KindVote:                    {Loaded: true, Items: votes},
		domain.KindPetition:                {Loaded: true, Items: petitions(t)},
		domain.KindSignalement:             {Loaded: true, Items: signalements},
		domain.KindYouthPoll:               {Loaded: true, Items: polls},
		domain.KindAssembly:                {Loaded: true},
		domain.KindConference:              {Loaded: true},
	})

	buckets := func(a ThemeAggregate) [][]models.NormalizedProcess {
		return [][]models.NormalizedProcess{a.Processes, a.Petitions, a.Votes, a.Signalements, a.YouthPolls}
	}
	for i, b := range buckets(partial) {
		f := buckets(full)[i]
		require.LessOrEqual(t, len(b), len(f))
		assert.Equal(t, b, f[:len(b)])
	}
	assert.False(t, partial.Complete)
	assert.True(t, full.Complete)
	assert.Empty(t, full.Pending)
}

func TestAggregate_FailedSourcesAreFinished(t *testing.T) {
	sources := Sources{}
	for _, kind := range domain.AllProcessKinds() {
		sources[kind] = Collection{Loaded: true}
	}
	sources[domain.KindVote] = Collection{Err: errors.New("upstream down")}

	agg := Aggregate(environment, sources)

	assert.True(t, agg.Complete)
	assert.Equal(t, []domain.ProcessKind{domain.KindVote}, agg.Failed)
}

func TestByTheme(t *testing.T) {
	sources := Sources{
		domain.KindConsultation: {Loaded: true, Items: consultations(t)},
		domain.KindPetition:     {Loaded: true, Items: petitions(t)},
	}

	assert.Equal(t, map[domain.ThemeID]int{"environment": 3, "mobility": 1}, ByTheme(sources))
	assert.Equal(t, []domain.ThemeID{"environment", "mobility"}, ThemeIDs(sources))
}
