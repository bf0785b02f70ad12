package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/config"
	"github.com/mbolis/survey-portal/database"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/metrics"
	"github.com/mbolis/survey-portal/model"
	"github.com/mbolis/survey-portal/survey"
)

const (
	tokenSecret = "0123456789abcdef0123456789abcdef"
	password    = "correct horse"
)

type harness struct {
	handler http.Handler
	now     time.Time
	token   string
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	db, err := database.Open(config.Config{
		DBDriver: database.SQLite,
		DBUrl:    filepath.Join(t.TempDir(), "survey.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db, database.SQLite)
	hash, err := httpx.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, store.SaveOperator(context.Background(), "editor", hash))

	h := &harness{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	cfg.TokenSecret = tokenSecret
	cfg.TokenTTL = time.Minute
	collector := metrics.New()

	h.handler = Wire(app.App{
		Surveys:      survey.NewService(store, survey.WithMetrics(collector), survey.WithClock(func() time.Time { return h.now })),
		Metrics:      collector,
		BearerServer: httpx.NewBearerServer(store, cfg),
		Config:       cfg,
	})
	return h
}

func (h *harness) do(method, path string, body any, prepare ...func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		r.Header.Set("Authorization", "Bearer "+h.token)
	}
	for _, p := range prepare {
		p(r)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, r)
	return resp
}

func from(addr string) func(*http.Request) {
	return func(r *http.Request) { r.RemoteAddr = addr + ":40000" }
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v), resp.Body.String())
	return v
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *harness) login(t *testing.T) tokens {
	t.Helper()
	resp := h.do(http.MethodPost, "/api/login", nil, func(r *http.Request) {
		r.SetBasicAuth("editor", password)
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	tok := decode[tokens](t, resp)
	require.NotEmpty(t, tok.AccessToken)
	h.token = tok.AccessToken
	return tok
}

func (h *harness) createSurvey(t *testing.T, in model.Survey) model.Survey {
	t.Helper()
	resp := h.do(http.MethodPost, "/api/admin/surveys", in)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Survey](t, resp)
}

func (h *harness) addQuestion(t *testing.T, surveyID int, spec model.QuestionSpec) model.Question {
	t.Helper()
	resp := h.do(http.MethodPost, "/api/admin/surveys/"+strconv.Itoa(surveyID)+"/questions", spec)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Question](t, resp)
}

func submitBody(answers map[int]any) map[string]any {
	out := map[string]any{}
	for id, v := range answers {
		out[strconv.Itoa(id)] = v
	}
	return map[string]any{"answers": out}
}

func TestAdminRequiresToken(t *testing.T) {
	h := newHarness(t, config.Config{})

	resp := h.do(http.MethodGet, "/api/admin/surveys", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	h.token = "garbage"
	resp = h.do(http.MethodGet, "/api/admin/surveys", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin(t *testing.T) {
	h := newHarness(t, config.Config{})

	resp := h.do(http.MethodPost, "/api/login", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = h.do(http.MethodPost, "/api/login", nil, func(r *http.Request) {
		r.SetBasicAuth("editor", "wrong")
	})
	assert.NotEqual(t, http.StatusOK, resp.Code)

	tok := h.login(t)
	resp = h.do(http.MethodGet, "/api/admin/surveys", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	h.token = ""
	resp = h.do(http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = h.do(http.MethodPost, "/api/refresh", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Refresh "+tok.RefreshToken)
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.NotEmpty(t, decode[tokens](t, resp).AccessToken)
}

func TestSurveyLifecycle(t *testing.T) {
	h := newHarness(t, config.Config{})
	h.login(t)

	sv := h.createSurvey(t, model.Survey{Title: "Café preferences", Description: "Quick poll"})
	assert.Regexp(t, `^cafe-preferences-[0-9a-f]{6}$`, sv.Slug)
	assert.Equal(t, 1, sv.Version)

	colour := h.addQuestion(t, sv.ID, model.QuestionSpec{
		Text: "Favourite colour", Type: model.SingleChoice, Options: []string{"Red", "Green", "Blue"}, ChartHint: "pie",
	})
	comments := h.addQuestion(t, sv.ID, model.QuestionSpec{Text: "Comments", Type: model.FreeText})

	resp := h.do(http.MethodPost, "/api/admin/surveys/"+strconv.Itoa(sv.ID)+"/questions", model.QuestionSpec{
		Text: "Broken", Type: model.SingleChoice,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	// public side
	h.token = ""
	resp = h.do(http.MethodGet, "/api/survey/"+sv.Slug, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	public := decode[model.Survey](t, resp)
	require.Len(t, public.Questions, 2)
	assert.Equal(t, colour.ID, public.Questions[0].ID)

	resp = h.do(http.MethodGet, "/api/survey/no-such-survey", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	check := func(addr string) bool {
		resp := h.do(http.MethodGet, "/api/surveys/"+sv.Slug+"/check", nil, from(addr))
		require.Equal(t, http.StatusOK, resp.Code)
		return decode[map[string]bool](t, resp)["already_answered"]
	}
	assert.False(t, check("192.0.2.10"))

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit",
		submitBody(map[int]any{colour.ID: "Green", comments.ID: "more cake"}), from("192.0.2.10"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[map[string]any](t, resp)
	assert.NotEmpty(t, created["message"])
	assert.NotZero(t, created["id"])

	assert.True(t, check("192.0.2.10"))
	assert.False(t, check("192.0.2.11"))

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit",
		submitBody(map[int]any{colour.ID: "Blue"}), from("192.0.2.10"))
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit",
		submitBody(map[int]any{colour.ID: "Purple"}), from("192.0.2.11"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	rejected := decode[httpx.Message](t, resp)
	assert.Equal(t, colour.ID, rejected.QuestionID)
	assert.False(t, check("192.0.2.11"))

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", map[string]any{}, from("192.0.2.11"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit",
		submitBody(map[int]any{colour.ID: "Red"}), from("192.0.2.11"))
	require.Equal(t, http.StatusCreated, resp.Code)

	// operator side
	h.login(t)
	resp = h.do(http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(sv.ID)+"/stats", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	stats := decode[model.Stats](t, resp)
	assert.Equal(t, 2, stats.TotalRespondents)
	require.Len(t, stats.Questions, 2)
	assert.Equal(t, map[string]int{"Red": 1, "Green": 1}, stats.Questions[0].Summary)
	assert.Equal(t, "pie", stats.Questions[0].ChartHint)
	assert.Equal(t, []string{"more cake"}, stats.Questions[1].Answers)

	resp = h.do(http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(sv.ID)+"/responses", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	responses := decode[map[string][]model.Response](t, resp)["responses"]
	require.Len(t, responses, 2)
	assert.Equal(t, "192.0.2.10", responses[0].Respondent)

	resp = h.do(http.MethodGet, "/api/admin/surveys", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	listed := decode[map[string][]model.SurveyListing](t, resp)["surveys"]
	require.Len(t, listed, 1)
	assert.Equal(t, 2, listed[0].QuestionCount)
	assert.Equal(t, 2, listed[0].ResponseCount)

	update := model.Survey{Title: "Café preferences 2025", Version: sv.Version}
	resp = h.do(http.MethodPut, "/api/admin/surveys/"+strconv.Itoa(sv.ID), update)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = h.do(http.MethodPut, "/api/admin/surveys/"+strconv.Itoa(sv.ID), update)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = h.do(http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(sv.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	detail := decode[model.Survey](t, resp)
	assert.Equal(t, "Café preferences 2025", detail.Title)
	assert.Equal(t, 2, detail.Version)
	assert.Equal(t, sv.Slug, detail.Slug)

	resp = h.do(http.MethodDelete, "/api/admin/questions/"+strconv.Itoa(comments.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = h.do(http.MethodDelete, "/api/admin/questions/"+strconv.Itoa(comments.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = h.do(http.MethodDelete, "/api/admin/surveys/"+strconv.Itoa(sv.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = h.do(http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(sv.ID)+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	h.token = ""
	resp = h.do(http.MethodGet, "/api/survey/"+sv.Slug, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSurveyWindow(t *testing.T) {
	h := newHarness(t, config.Config{})
	h.login(t)

	start := h.now.Add(time.Hour)
	end := h.now.Add(48 * time.Hour)
	sv := h.createSurvey(t, model.Survey{Title: "Later", StartAt: &start, EndAt: &end})

	resp := h.do(http.MethodPost, "/api/admin/surveys", model.Survey{Title: "Backwards", StartAt: &end, EndAt: &start})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	h.token = ""
	resp = h.do(http.MethodGet, "/api/survey/"+sv.Slug, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	h.now = start
	resp = h.do(http.MethodGet, "/api/survey/"+sv.Slug, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	h.now = end.Add(time.Second)
	resp = h.do(http.MethodGet, "/api/survey/"+sv.Slug, nil)
	assert.Equal(t, http.StatusGone, resp.Code)
	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil))
	assert.Equal(t, http.StatusGone, resp.Code)
	assert.NotEqual(t, decode[httpx.Message](t, resp).Message, "")
}

func TestSubmitRateLimit(t *testing.T) {
	h := newHarness(t, config.Config{SubmitRate: 1})
	h.login(t)
	sv := h.createSurvey(t, model.Survey{Title: "Limited"})
	h.token = ""

	resp := h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), from("198.51.100.1"))
	assert.Equal(t, http.StatusCreated, resp.Code)
	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), from("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))

	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), from("198.51.100.2"))
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestTrustProxy(t *testing.T) {
	h := newHarness(t, config.Config{TrustProxy: true})
	h.login(t)
	sv := h.createSurvey(t, model.Survey{Title: "Proxied"})
	h.token = ""

	forwarded := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip) }
	}
	resp := h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), forwarded("203.0.113.1"))
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), forwarded("203.0.113.2"))
	assert.Equal(t, http.StatusCreated, resp.Code)
	resp = h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil), forwarded("203.0.113.1"))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, config.Config{})
	h.login(t)
	sv := h.createSurvey(t, model.Survey{Title: "Counted"})
	h.token = ""

	h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil))
	h.do(http.MethodPost, "/api/survey/"+sv.Slug+"/submit", submitBody(nil))

	resp := h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.True(t, strings.Contains(body, `survey_submissions_total{outcome="accepted"} 1`), body)
	assert.True(t, strings.Contains(body, `survey_submissions_total{outcome="already_submitted"} 1`), body)
}
