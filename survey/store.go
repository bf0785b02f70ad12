package survey

import (
	"context"

	"github.com/mbolis/survey-portal/model"
)

// Store is the persistence the survey pipeline needs. Lookups of missing
// rows return ErrNotFound; InsertResponse returns ErrAlreadySubmitted when
// the (survey, respondent) pair already exists, and must decide that at
// insertion time rather than from a prior read.
type Store interface {
	ListSurveys(ctx context.Context) ([]model.SurveyListing, error)
	GetSurvey(ctx context.Context, id int) (model.Survey, error)
	GetSurveyBySlug(ctx context.Context, slug string) (model.Survey, error)
	InsertSurvey(ctx context.Context, s model.Survey) (model.Survey, error)
	UpdateSurvey(ctx context.Context, s model.Survey) (model.Survey, error)
	DeleteSurvey(ctx context.Context, id int) error

	ListQuestions(ctx context.Context, surveyID int) ([]model.Question, error)
	InsertQuestion(ctx context.Context, q model.Question) (model.Question, error)
	// DeleteQuestion returns the owning survey id of the deleted question.
	DeleteQuestion(ctx context.Context, id int) (int, error)

	HasResponse(ctx context.Context, surveyID int, respondent string) (bool, error)
	InsertResponse(ctx context.Context, r model.Response) (model.Response, error)
	ListResponses(ctx context.Context, surveyID int) ([]model.Response, error)
}

// StatsCache keeps aggregated statistics between submissions.
type StatsCache interface {
	Get(ctx context.Context, surveyID int) (model.Stats, bool, error)
	Set(ctx context.Context, surveyID int, stats model.Stats) error
	Invalidate(ctx context.Context, surveyID int) error
}
