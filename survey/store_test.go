package survey

import (
	"context"
	"slices"
	"sync"

	"github.com/mbolis/survey-portal/model"
)

// memStore is an in-memory Store; InsertResponse enforces the
// (survey, respondent) uniqueness under its lock.
type memStore struct {
	mu        sync.Mutex
	nextID    int
	surveys   map[int]model.Survey
	questions []model.Question
	responses []model.Response

	// listResponses counts ListResponses calls.
	listResponses int
}

func newMemStore() *memStore {
	return &memStore{surveys: map[int]model.Survey{}}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) withQuestions(sv model.Survey) model.Survey {
	sv.Questions = []model.Question{}
	for _, q := range m.questions {
		if q.SurveyID == sv.ID {
			sv.Questions = append(sv.Questions, q)
		}
	}
	return sv
}

func (m *memStore) ListSurveys(ctx context.Context) ([]model.SurveyListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SurveyListing{}
	for _, sv := range m.surveys {
		out = append(out, model.SurveyListing{Survey: sv})
	}
	return out, nil
}

func (m *memStore) GetSurvey(ctx context.Context, id int) (model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sv, ok := m.surveys[id]
	if !ok {
		return model.Survey{}, ErrNotFound
	}
	return m.withQuestions(sv), nil
}

func (m *memStore) GetSurveyBySlug(ctx context.Context, slug string) (model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sv := range m.surveys {
		if sv.Slug == slug {
			return m.withQuestions(sv), nil
		}
	}
	return model.Survey{}, ErrNotFound
}

func (m *memStore) InsertSurvey(ctx context.Context, sv model.Survey) (model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sv.ID = m.id()
	sv.Version = 1
	m.surveys[sv.ID] = sv
	return sv, nil
}

func (m *memStore) UpdateSurvey(ctx context.Context, sv model.Survey) (model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.surveys[sv.ID]
	if !ok {
		return model.Survey{}, ErrNotFound
	}
	if cur.Version != sv.Version {
		return model.Survey{}, ErrConflict
	}
	cur.Title, cur.Description, cur.StartAt, cur.EndAt = sv.Title, sv.Description, sv.StartAt, sv.EndAt
	cur.Version++
	m.surveys[sv.ID] = cur
	return cur, nil
}

func (m *memStore) DeleteSurvey(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[id]; !ok {
		return ErrNotFound
	}
	delete(m.surveys, id)
	m.questions = slices.DeleteFunc(m.questions, func(q model.Question) bool { return q.SurveyID == id })
	m.responses = slices.DeleteFunc(m.responses, func(r model.Response) bool { return r.SurveyID == id })
	return nil
}

func (m *memStore) ListQuestions(ctx context.Context, surveyID int) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.withQuestions(model.Survey{ID: surveyID}).Questions, nil
}

func (m *memStore) InsertQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.id()
	m.questions = append(m.questions, q)
	return q, nil
}

func (m *memStore) DeleteQuestion(ctx context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.questions {
		if q.ID == id {
			m.questions = slices.Delete(m.questions, i, i+1)
			return q.SurveyID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *memStore) HasResponse(ctx context.Context, surveyID int, respondent string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasResponse(surveyID, respondent), nil
}

func (m *memStore) hasResponse(surveyID int, respondent string) bool {
	for _, r := range m.responses {
		if r.SurveyID == surveyID && r.Respondent == respondent {
			return true
		}
	}
	return false
}

func (m *memStore) InsertResponse(ctx context.Context, r model.Response) (model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasResponse(r.SurveyID, r.Respondent) {
		return model.Response{}, ErrAlreadySubmitted
	}
	r.ID = m.id()
	m.responses = append(m.responses, r)
	return r, nil
}

func (m *memStore) ListResponses(ctx context.Context, surveyID int) ([]model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listResponses++
	out := []model.Response{}
	for _, r := range m.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

// racyStore never reports a prior response, so every submitter gets past
// the existence check and only the insert can stop duplicates.
type racyStore struct {
	*memStore
}

func (racyStore) HasResponse(ctx context.Context, surveyID int, respondent string) (bool, error) {
	return false, nil
}

// memCache is an in-memory StatsCache.
type memCache struct {
	mu      sync.Mutex
	entries map[int]model.Stats
}

func newMemCache() *memCache {
	return &memCache{entries: map[int]model.Stats{}}
}

func (c *memCache) Get(ctx context.Context, surveyID int) (model.Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[surveyID]
	return s, ok, nil
}

func (c *memCache) Set(ctx context.Context, surveyID int, stats model.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[surveyID] = stats
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, surveyID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, surveyID)
	return nil
}
