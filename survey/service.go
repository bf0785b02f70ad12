// Package survey implements the survey pipeline: question schemas, answer
// validation, one-response-per-respondent submission and statistics.
package survey

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mbolis/survey-portal/metrics"
	"github.com/mbolis/survey-portal/model"
)

type Service struct {
	store   Store
	cache   StatsCache
	metrics *metrics.Collector
	now     func() time.Time
	flight  singleflight.Group
}

type Option func(*Service)

// WithCache enables the statistics cache.
func WithCache(cache StatsCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now for window checks and response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListSurveys(ctx context.Context) ([]model.SurveyListing, error) {
	return s.store.ListSurveys(ctx)
}

func (s *Service) GetSurvey(ctx context.Context, id int) (model.Survey, error) {
	return s.store.GetSurvey(ctx, id)
}

// OpenSurvey returns the survey behind a public address, provided it
// currently accepts answers.
func (s *Service) OpenSurvey(ctx context.Context, slug string) (model.Survey, error) {
	sv, err := s.store.GetSurveyBySlug(ctx, slug)
	if err != nil {
		return model.Survey{}, err
	}
	if err := CheckEligibility(sv, s.now()); err != nil {
		return model.Survey{}, err
	}
	return sv, nil
}

func (s *Service) CreateSurvey(ctx context.Context, in model.Survey) (model.Survey, error) {
	sv, err := checkSurvey(in)
	if err != nil {
		return model.Survey{}, err
	}
	sv.Slug = NewSlug(sv.Title)
	sv.CreatedAt = s.now().UTC()
	return s.store.InsertSurvey(ctx, sv)
}

// UpdateSurvey changes title, description and window. The caller must send
// the version it read; a stale version fails with ErrConflict.
func (s *Service) UpdateSurvey(ctx context.Context, id int, in model.Survey) (model.Survey, error) {
	sv, err := checkSurvey(in)
	if err != nil {
		return model.Survey{}, err
	}
	sv.ID = id
	sv.Version = in.Version
	sv, err = s.store.UpdateSurvey(ctx, sv)
	if err != nil {
		return model.Survey{}, err
	}
	s.invalidateStats(ctx, id)
	return sv, nil
}

// DeleteSurvey removes the survey along with its questions and responses.
func (s *Service) DeleteSurvey(ctx context.Context, id int) error {
	if err := s.store.DeleteSurvey(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, id)
	return nil
}

func (s *Service) ListResponses(ctx context.Context, surveyID int) ([]model.Response, error) {
	if _, err := s.store.GetSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.store.ListResponses(ctx, surveyID)
}

func checkSurvey(in model.Survey) (model.Survey, error) {
	sv := model.Survey{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartAt:     utc(in.StartAt),
		EndAt:       utc(in.EndAt),
	}
	if sv.Title == "" {
		return sv, invalidSurvey("title", "is required")
	}
	if sv.StartAt != nil && sv.EndAt != nil && sv.EndAt.Before(*sv.StartAt) {
		return sv, invalidSurvey("end_at", "must not be before start_at")
	}
	return sv, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
