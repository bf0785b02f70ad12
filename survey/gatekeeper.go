package survey

import (
	"context"
	"errors"
	"time"

	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/model"
)

// CheckEligibility tells whether the survey accepts answers at now. The open
// window is inclusive on both ends; a missing bound leaves that side open.
func CheckEligibility(s model.Survey, now time.Time) error {
	if s.StartAt != nil && now.Before(*s.StartAt) {
		return ErrNotYetOpen
	}
	if s.EndAt != nil && now.After(*s.EndAt) {
		return ErrClosed
	}
	return nil
}

func (s *Service) HasSubmitted(ctx context.Context, surveyID int, respondent string) (bool, error) {
	return s.store.HasResponse(ctx, surveyID, respondent)
}

// HasSubmittedBySlug is HasSubmitted for a public survey address.
func (s *Service) HasSubmittedBySlug(ctx context.Context, slug, respondent string) (bool, error) {
	sv, err := s.store.GetSurveyBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	return s.HasSubmitted(ctx, sv.ID, respondent)
}

// Submit records the respondent's answers once. The prior-submission check
// only short-circuits the common case; the store's uniqueness constraint
// decides concurrent submissions.
func (s *Service) Submit(ctx context.Context, sv model.Survey, respondent string, answers model.AnswerSet) (model.Response, error) {
	r, err := s.submit(ctx, sv, respondent, answers)
	s.metrics.ObserveSubmission(submissionOutcome(err))

	logger := log.WithFields(log.Fields{"survey": sv.ID, "respondent": respondent})
	switch {
	case err == nil:
		logger.Debugf("survey.submit: accepted response %d", r.ID)
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrValidationFailed),
		errors.Is(err, ErrNotYetOpen), errors.Is(err, ErrClosed):
		logger.Debugf("survey.submit: rejected: %s", err)
	}
	return r, err
}

func (s *Service) submit(ctx context.Context, sv model.Survey, respondent string, answers model.AnswerSet) (model.Response, error) {
	if err := CheckEligibility(sv, s.now()); err != nil {
		return model.Response{}, err
	}

	submitted, err := s.store.HasResponse(ctx, sv.ID, respondent)
	if err != nil {
		return model.Response{}, err
	}
	if submitted {
		return model.Response{}, ErrAlreadySubmitted
	}

	questions := sv.Questions
	if questions == nil {
		questions, err = s.store.ListQuestions(ctx, sv.ID)
		if err != nil {
			return model.Response{}, err
		}
	}
	if err := Validate(questions, answers); err != nil {
		return model.Response{}, err
	}

	r, err := s.store.InsertResponse(ctx, model.Response{
		SurveyID:   sv.ID,
		Answers:    keepKnown(questions, answers),
		Respondent: respondent,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return model.Response{}, err
	}

	s.invalidateStats(ctx, sv.ID)
	return r, nil
}

// SubmitBySlug resolves a public survey address and submits to it.
func (s *Service) SubmitBySlug(ctx context.Context, slug, respondent string, answers model.AnswerSet) (model.Response, error) {
	sv, err := s.store.GetSurveyBySlug(ctx, slug)
	if err != nil {
		return model.Response{}, err
	}
	return s.Submit(ctx, sv, respondent, answers)
}

// keepKnown drops answers keyed by ids that are not questions of the survey,
// along with explicit nulls.
func keepKnown(questions []model.Question, answers model.AnswerSet) model.AnswerSet {
	kept := make(model.AnswerSet, len(answers))
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && !a.IsNull() {
			kept[q.ID] = a
		}
	}
	return kept
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrNotYetOpen):
		return "not_yet_open"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "error"
}
