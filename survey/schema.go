package survey

import (
	"context"
	"slices"
	"strings"

	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/model"
)

// CheckQuestion normalizes a question definition, rejecting choice questions
// without options and free-text questions carrying options.
func CheckQuestion(spec model.QuestionSpec) (model.Question, error) {
	q := model.Question{
		Text:      strings.TrimSpace(spec.Text),
		Type:      spec.Type,
		ChartHint: strings.TrimSpace(spec.ChartHint),
	}
	if q.Text == "" {
		return q, invalidQuestion("question_text", "is required")
	}
	if !q.Type.Valid() {
		return q, invalidQuestion("type", "must be one of radio, multiselect, select, text")
	}

	if !q.Type.IsChoice() {
		if len(spec.Options) > 0 {
			return q, invalidQuestion("options", "free-text questions take no options")
		}
		// chart hints only matter for choice questions
		q.ChartHint = ""
		return q, nil
	}

	if len(spec.Options) == 0 {
		return q, invalidQuestion("options", "choice questions need at least one option")
	}
	q.Options = make([]string, 0, len(spec.Options))
	for _, opt := range spec.Options {
		if strings.TrimSpace(opt) == "" {
			return q, invalidQuestion("options", "options must not be blank")
		}
		if slices.Contains(q.Options, opt) {
			return q, invalidQuestion("options", "duplicate option "+opt)
		}
		q.Options = append(q.Options, opt)
	}

	if q.ChartHint != "" && !slices.Contains(model.ChartHints, q.ChartHint) {
		return q, invalidQuestion("chart_type", "must be one of "+strings.Join(model.ChartHints, ", "))
	}
	return q, nil
}

// Questions returns the survey questions in display order.
func (s *Service) Questions(ctx context.Context, surveyID int) ([]model.Question, error) {
	if _, err := s.store.GetSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, surveyID)
}

func (s *Service) AddQuestion(ctx context.Context, surveyID int, spec model.QuestionSpec) (model.Question, error) {
	q, err := CheckQuestion(spec)
	if err != nil {
		return model.Question{}, err
	}
	if _, err := s.store.GetSurvey(ctx, surveyID); err != nil {
		return model.Question{}, err
	}

	q.SurveyID = surveyID
	q, err = s.store.InsertQuestion(ctx, q)
	if err != nil {
		return model.Question{}, err
	}
	s.invalidateStats(ctx, surveyID)
	return q, nil
}

// RemoveQuestion deletes a question even if responses already answer it;
// those answers are then ignored by the statistics.
func (s *Service) RemoveQuestion(ctx context.Context, questionID int) error {
	surveyID, err := s.store.DeleteQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	log.Debugf("survey.remove_question: question %d removed from survey %d", questionID, surveyID)
	s.invalidateStats(ctx, surveyID)
	return nil
}
