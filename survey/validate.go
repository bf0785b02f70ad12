package survey

import (
	"slices"
	"strings"

	"github.com/mbolis/survey-portal/model"
)

// Validate checks answers against the survey questions, in question order,
// and returns a *ValidationError for the first offending question.
//
// Unanswered questions are accepted, as are answer keys naming no question.
func Validate(questions []model.Question, answers model.AnswerSet) error {
	for _, q := range questions {
		if q.Type == model.FreeText {
			continue
		}
		if len(q.Options) == 0 {
			return rejectf(q.ID, "question %d has no valid options", q.ID)
		}

		a, ok := answers[q.ID]
		if !ok || a.IsNull() {
			continue
		}

		switch q.Type {
		case model.MultiChoice:
			values, ok := a.List()
			if !ok {
				return rejectf(q.ID, "answer to question %d must be a list of options", q.ID)
			}
			for _, v := range values {
				if !slices.Contains(q.Options, v) {
					return rejectf(q.ID, "answer '%s' is not valid for question %d", v, q.ID)
				}
			}

		case model.SingleChoice, model.DropdownChoice:
			v, ok := a.Single()
			if !ok {
				return rejectf(q.ID, "answer '%s' is not valid for question %d", display(a), q.ID)
			}
			if !slices.Contains(q.Options, v) {
				return rejectf(q.ID, "answer '%s' is not valid for question %d", v, q.ID)
			}

		default:
			return rejectf(q.ID, "question %d has unknown type %q", q.ID, q.Type)
		}
	}
	return nil
}

func display(a model.Answer) string {
	if values, ok := a.List(); ok {
		return strings.Join(values, ", ")
	}
	return a.Text()
}
