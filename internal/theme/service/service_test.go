package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Fetcher,Cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agora/internal/i18n"
	"agora/internal/theme/metrics"
	"agora/internal/theme/models"
	"agora/internal/theme/service/mocks"
	"agora/internal/theme/store"
	"agora/pkg/domain"
	"agora/pkg/platform/sentinel"
)

// =============================================================================
// Theme Directory Test Suite
// =============================================================================
// Justification: the directory is the only shared mutable state of the
// portal core. Tests cover memoization, fetch coalescing, failure
// isolation and the shared cache level.

type DirectorySuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	fetcher  *mocks.MockFetcher
	local    *store.InMemory
	metrics  *metrics.Metrics
	dir      *Directory
	ctx      context.Context
	envTheme *models.Theme
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.local = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.ctx = context.Background()
	s.envTheme = &models.Theme{
		ID:    "environment",
		Name:  i18n.Text("fr", "Environnement", "de", "Umwelt", "en", "Environment"),
		Color: "#2e7d32",
		Icon:  "leaf",
	}

	var err error
	s.dir, err = New(s.fetcher, s.local,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithFetchTimeout(time.Second),
	)
	s.Require().NoError(err)
}

func (s *DirectorySuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DirectorySuite) TestNew() {
	s.Run("nil fetcher returns error", func() {
		_, err := New(nil, s.local)
		s.ErrorContains(err, "theme fetcher is required")
	})

	s.Run("nil cache returns error", func() {
		_, err := New(s.fetcher, nil)
		s.ErrorContains(err, "local theme cache is required")
	})
}

func (s *DirectorySuite) TestGetMemoizes() {
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("environment")).Return(s.envTheme, nil).Times(1)

	first, err := s.dir.Get(s.ctx, "environment")
	s.Require().NoError(err)
	second, err := s.dir.Get(s.ctx, "environment")
	s.Require().NoError(err)

	s.Equal(s.envTheme, first)
	s.Equal(first, second)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheHits.WithLabelValues("memory")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheMisses))
}

func (s *DirectorySuite) TestGetReturnsCopies() {
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), gomock.Any()).Return(s.envTheme, nil).Times(1)

	first, err := s.dir.Get(s.ctx, "environment")
	s.Require().NoError(err)
	first.Name[domain.LanguageFrench] = "mutated"

	second, err := s.dir.Get(s.ctx, "environment")
	s.Require().NoError(err)
	s.Equal("Environnement", second.Name[domain.LanguageFrench])
}

func (s *DirectorySuite) TestConcurrentGetsCoalesce() {
	release := make(chan struct{})
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("environment")).
		DoAndReturn(func(context.Context, domain.ThemeID) (*models.Theme, error) {
			<-release
			return s.envTheme, nil
		}).Times(1)

	const callers = 25
	var wg sync.WaitGroup
	results := make([]*models.Theme, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.dir.Get(s.ctx, "environment")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(s.envTheme.ID, results[i].ID)
	}
}

func (s *DirectorySuite) TestConcurrentGetsShareFailure() {
	release := make(chan struct{})
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("ghost")).
		DoAndReturn(func(context.Context, domain.ThemeID) (*models.Theme, error) {
			<-release
			return nil, sentinel.ErrNotFound
		}).Times(1)

	const callers = 25
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.dir.Get(s.ctx, "ghost")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		s.ErrorIs(errs[i], ErrThemeNotFound, "caller %d", i)
	}
	s.Equal(0, s.local.Len())
}

func (s *DirectorySuite) TestMemoizesUnderRequestedID() {
	upstream := &models.Theme{ID: "Environment", Name: i18n.Text("fr", "Environnement")}
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("environment")).Return(upstream, nil).Times(1)

	for i := 0; i < 3; i++ {
		t, err := s.dir.Get(s.ctx, "environment")
		s.Require().NoError(err)
		s.Equal(domain.ThemeID("environment"), t.ID)
	}
	s.Equal(2.0, testutil.ToFloat64(s.metrics.CacheHits.WithLabelValues("memory")))
}

func (s *DirectorySuite) TestFailuresDoNotPoison() {
	s.Run("not found is reported to the caller", func() {
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("ghost")).Return(nil, sentinel.ErrNotFound)

		_, err := s.dir.Get(s.ctx, "ghost")
		s.ErrorIs(err, ErrThemeNotFound)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("a failed id is fetched again on the next lookup", func() {
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("flaky")).Return(nil, errors.New("connection reset"))
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("flaky")).Return(&models.Theme{ID: "flaky"}, nil)

		_, err := s.dir.Get(s.ctx, "flaky")
		s.Require().Error(err)
		s.NotErrorIs(err, ErrThemeNotFound)

		t, err := s.dir.Get(s.ctx, "flaky")
		s.Require().NoError(err)
		s.Equal(domain.ThemeID("flaky"), t.ID)
	})

	s.Run("other ids are unaffected", func() {
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("environment")).Return(s.envTheme, nil)

		t, err := s.dir.Get(s.ctx, "environment")
		s.Require().NoError(err)
		s.Equal(s.envTheme.ID, t.ID)
	})

	s.Run("empty id is rejected without fetching", func() {
		_, err := s.dir.Get(s.ctx, "")
		s.Error(err)
	})
}

func (s *DirectorySuite) TestCallerCancellationDoesNotCancelFetch() {
	release := make(chan struct{})
	s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("environment")).
		DoAndReturn(func(ctx context.Context, _ domain.ThemeID) (*models.Theme, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return s.envTheme, nil
		}).Times(1)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		_, err := s.dir.Get(ctx, "environment")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	s.ErrorIs(<-done, context.Canceled)

	close(release)
	s.Eventually(func() bool {
		_, err := s.local.Find(s.ctx, "environment")
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func (s *DirectorySuite) TestSharedCache() {
	shared := mocks.NewMockCache(s.ctrl)
	dir, err := New(s.fetcher, store.NewInMemory(), WithSharedCache(shared), WithMetrics(s.metrics))
	s.Require().NoError(err)

	s.Run("shared hit skips the network", func() {
		shared.EXPECT().Find(gomock.Any(), domain.ThemeID("environment")).Return(s.envTheme, nil)

		t, err := dir.Get(s.ctx, "environment")
		s.Require().NoError(err)
		s.Equal(s.envTheme.ID, t.ID)
	})

	s.Run("shared miss fetches and publishes", func() {
		culture := &models.Theme{ID: "culture", Name: i18n.Text("fr", "Culture")}
		shared.EXPECT().Find(gomock.Any(), domain.ThemeID("culture")).Return(nil, sentinel.ErrNotFound)
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("culture")).Return(culture, nil)
		shared.EXPECT().Save(gomock.Any(), culture).Return(nil)

		t, err := dir.Get(s.ctx, "culture")
		s.Require().NoError(err)
		s.Equal(culture.ID, t.ID)
	})

	s.Run("shared outage falls through to the network", func() {
		shared.EXPECT().Find(gomock.Any(), domain.ThemeID("mobility")).Return(nil, errors.New("redis down"))
		s.fetcher.EXPECT().FetchTheme(gomock.Any(), domain.ThemeID("mobility")).Return(&models.Theme{ID: "mobility"}, nil)
		shared.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := dir.Get(s.ctx, "mobility")
		s.NoError(err)
	})
}

func (s *DirectorySuite) TestListPrimesCache() {
	s.fetcher.EXPECT().FetchThemes(gomock.Any()).Return([]models.Theme{*s.envTheme, {ID: "culture"}}, nil)

	themes, err := s.dir.List(s.ctx)
	s.Require().NoError(err)
	s.Len(themes, 2)
	s.Equal(2, s.local.Len())

	// Served from memory; the mock would fail on an unexpected fetch.
	_, err = s.dir.Get(s.ctx, "culture")
	s.NoError(err)
}
