package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"agora/internal/aggregate"
	"agora/internal/i18n"
	"agora/internal/portalapi"
	"agora/internal/process/models"
	"agora/internal/process/normalize"
	themeModels "agora/internal/theme/models"
	"agora/internal/theme/service"
	"agora/pkg/domain"
	"agora/pkg/testutil"
)

type fakeThemes struct {
	themes map[domain.ThemeID]themeModels.Theme
	err    error
}

func (f *fakeThemes) Get(_ context.Context, id domain.ThemeID) (*themeModels.Theme, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.themes[id]
	if !ok {
		return nil, service.ErrThemeNotFound
	}
	return t.Clone(), nil
}

func (f *fakeThemes) List(context.Context) ([]themeModels.Theme, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]themeModels.Theme, 0, len(f.themes))
	for _, t := range f.themes {
		out = append(out, t)
	}
	return out, nil
}

type fakeAges struct {
	age   int
	known bool
	err   error
}

func (f fakeAges) Current(context.Context) (int, bool, error) {
	return f.age, f.known, f.err
}

type HandlerSuite struct {
	suite.Suite
	themes  *fakeThemes
	tracker *aggregate.Tracker
	ages    fakeAges
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.themes = &fakeThemes{themes: map[domain.ThemeID]themeModels.Theme{
		"environment": {
			ID:    "environment",
			Name:  i18n.Text("fr", "Environnement", "de", "Umwelt", "en", "Environment"),
			Color: "#2e7d32",
		},
	}}
	s.tracker = aggregate.NewTracker()
	s.ages = fakeAges{age: 14, known: true}
	s.rebuildRouter()
}

func (s *HandlerSuite) rebuildRouter() {
	h := New(s.themes, s.tracker, s.ages, i18n.DefaultLanguages(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) load(kind domain.ProcessKind, records ...models.NormalizedProcess) {
	s.tracker.Set(kind, records)
}

func (s *HandlerSuite) consultation(id, theme string) models.NormalizedProcess {
	p, err := normalize.FromConsultation(models.ConsultationRecord{
		RecordBase: models.RecordBase{
			ID:      id,
			Title:   i18n.Text("fr", "Plan climat", "de", "Klimaplan"),
			ThemeID: theme,
			Status:  "open",
		},
		Participants: 12,
	})
	s.Require().NoError(err)
	return p
}

func (s *HandlerSuite) TestThemes() {
	s.Run("lists themes in the request language", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes?lang=de"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		themes := testutil.UnmarshalResponse[[]ThemeResponse](s.T(), rr)
		s.Require().Len(*themes, 1)
		s.Equal("Umwelt", (*themes)[0].Name)
	})

	s.Run("gets one theme with Accept-Language", func() {
		rr := testutil.DoRequest(s.router, testutil.GetWithLanguage(s.T(), "/api/themes/environment", "en-US,en;q=0.9"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		theme := testutil.UnmarshalResponse[ThemeResponse](s.T(), rr)
		s.Equal("Environment", theme.Name)
		s.Equal("en", rr.Header().Get("Content-Language"))
	})

	s.Run("unknown theme is 404", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes/ghost"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("portal outage is 503", func() {
		s.themes.err = portalapi.NewClientError(portalapi.ErrorOutage, "themes", "unexpected status 502", nil)
		defer func() { s.themes.err = nil }()

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})
}

func (s *HandlerSuite) TestEnvironmentThemePage() {
	testutil.Scenario(s.T(), "environment theme page", func(t *testing.T) {
		loaded := testutil.Given(t, "two consultations and a petition tagged environment", func(t *testing.T) {
			petition, err := normalize.FromPetition(models.PetitionRecord{
				RecordBase:        models.RecordBase{ID: "p-1", Title: i18n.Text("fr", "Sauvons les haies"), ThemeID: "environment", Status: "signatures_reached"},
				CurrentSignatures: 450,
				Threshold:         1000,
			})
			if err != nil {
				t.Fatal(err)
			}
			s.load(domain.KindConsultation, s.consultation("c-1", "environment"), s.consultation("c-2", "environment"), s.consultation("c-3", "finance"))
			s.load(domain.KindPetition, petition)
		})
		if !loaded {
			return
		}

		testutil.When(t, "the aggregate is requested in German", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.Get(t, "/api/themes/environment/aggregate?lang=de"))
			testutil.AssertStatus(t, rr, http.StatusOK)
			agg := testutil.UnmarshalResponse[AggregateResponse](t, rr)

			testutil.Then(t, "counts reflect the tagged records only", func(t *testing.T) {
				s.Equal(2, agg.Counts.Processes)
				s.Equal(1, agg.Counts.Petitions)
				s.Equal(0, agg.Counts.Votes)
			})
			testutil.Then(t, "strings are resolved to German", func(t *testing.T) {
				s.Equal("Umwelt", agg.Theme.Name)
				s.Equal("Klimaplan", agg.Processes[0].Title)
				s.Equal("Sauvons les haies", agg.Petitions[0].Title, "missing German falls back to French")
				s.Equal("Quorum erreicht", agg.Petitions[0].Status.Label)
				s.InDelta(0.45, agg.Petitions[0].Stats["progress"], 1e-9)
			})
			testutil.Then(t, "the page knows loading is incomplete", func(t *testing.T) {
				s.False(agg.Complete)
				s.Contains(agg.Pending, "vote")
			})
		})
	})
}

func (s *HandlerSuite) TestAggregateYouthPollEligibility() {
	all, err := normalize.FromYouthPoll(models.YouthPollRecord{
		RecordBase: models.RecordBase{ID: "y-1", Title: i18n.Text("fr", "Ta ville"), ThemeID: "environment", Status: "open"},
		TargetAge:  "all",
	})
	s.Require().NoError(err)
	older, err := normalize.FromYouthPoll(models.YouthPollRecord{
		RecordBase: models.RecordBase{ID: "y-2", Title: i18n.Text("fr", "Lycée"), ThemeID: "environment", Status: "open"},
		TargetAge:  "16+",
	})
	s.Require().NoError(err)
	s.load(domain.KindYouthPoll, all, older)

	s.Run("known age decides eligibility", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes/environment/aggregate"))
		agg := testutil.UnmarshalResponse[AggregateResponse](s.T(), rr)

		s.Require().Len(agg.YouthPolls, 2)
		s.True(*agg.YouthPolls[0].Eligible)
		s.False(*agg.YouthPolls[1].Eligible)
	})

	s.Run("unknown age keeps polls in the aggregate", func() {
		s.ages = fakeAges{}
		s.rebuildRouter()

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes/environment/aggregate"))
		agg := testutil.UnmarshalResponse[AggregateResponse](s.T(), rr)

		s.Equal(2, agg.Counts.YouthPolls)
		s.True(*agg.YouthPolls[0].Eligible, "a poll for everyone is open to unknown ages")
		s.Nil(agg.YouthPolls[1].Eligible)
	})
}

func (s *HandlerSuite) TestAggregateWithoutThemeDetails() {
	s.themes.err = portalapi.NewClientError(portalapi.ErrorCircuitOpen, "theme", "portal circuit open", nil)
	s.load(domain.KindConsultation, s.consultation("c-1", "environment"))

	rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes/environment/aggregate"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	agg := testutil.UnmarshalResponse[AggregateResponse](s.T(), rr)
	s.Nil(agg.Theme)
	s.Equal(1, agg.Counts.Processes)
}

func (s *HandlerSuite) TestProcesses() {
	s.Run("loaded collection", func() {
		s.load(domain.KindConsultation, s.consultation("c-1", "environment"))

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/processes/consultations"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		list := testutil.UnmarshalResponse[ProcessListResponse](s.T(), rr)
		s.True(list.Loaded)
		s.Equal("consultation", list.Kind)
		s.Require().Len(list.Items, 1)
		s.Equal("Plan climat", list.Items[0].Title)
		s.Equal("Ouvert", list.Items[0].Status.Label)
	})

	s.Run("not yet loaded collection", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/processes/vote"))
		list := testutil.UnmarshalResponse[ProcessListResponse](s.T(), rr)
		s.False(list.Loaded)
		s.Empty(list.Items)
	})

	s.Run("failed collection is 503", func() {
		s.tracker.Fail(domain.KindPetition, errors.New("portal down"))

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/processes/petitions"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})

	s.Run("failed refresh serves the last loaded items as stale", func() {
		s.load(domain.KindConsultation, s.consultation("c-1", "environment"))
		s.tracker.Fail(domain.KindConsultation, errors.New("portal down"))

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/processes/consultations"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		list := testutil.UnmarshalResponse[ProcessListResponse](s.T(), rr)
		s.True(list.Loaded)
		s.True(list.Stale)
		s.Len(list.Items, 1)

		rr = testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/themes/environment/aggregate"))
		agg := testutil.UnmarshalResponse[AggregateResponse](s.T(), rr)
		s.Equal(1, agg.Counts.Processes)
		s.Contains(agg.Stale, "consultation")
	})

	s.Run("unknown kind is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/processes/surveys"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *HandlerSuite) TestClassifyStatus() {
	s.Run("alias resolves to the shared category", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/status/assembly/Active?lang=en"))
		st := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)

		s.Equal("open", st.Category)
		s.Equal("Open", st.Label)
		s.Equal("Active", st.Raw)
		s.True(st.Known)
	})

	s.Run("unknown token falls back to pending", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/status/petition/archived"))
		st := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)

		s.Equal("pending", st.Category)
		s.False(st.Known)
		s.Equal("archived", st.Raw)
	})
}

func (s *HandlerSuite) TestAge() {
	s.Run("known age", func() {
		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/me/age"))
		resp := testutil.UnmarshalResponse[AgeResponse](s.T(), rr)
		s.True(resp.Known)
		s.Equal(14, *resp.Age)
	})

	s.Run("storage failure is 500", func() {
		s.ages = fakeAges{err: errors.New("disk")}
		s.rebuildRouter()

		rr := testutil.DoRequest(s.router, testutil.Get(s.T(), "/api/me/age"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})

	s.Run("no profile store", func() {
		h := New(s.themes, s.tracker, nil, nil, nil)
		r := chi.NewRouter()
		h.Register(r)

		rr := testutil.DoRequest(r, testutil.Get(s.T(), "/api/me/age"))
		resp := testutil.UnmarshalResponse[AgeResponse](s.T(), rr)
		s.False(resp.Known)
		s.Nil(resp.Age)
	})
}
