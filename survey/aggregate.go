package survey

import (
	"context"
	"strconv"
	"time"

	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/model"
)

// Aggregate folds responses into per-question statistics, following the
// order of questions. Answers to questions not in the list are ignored.
func Aggregate(sv model.Survey, questions []model.Question, responses []model.Response) model.Stats {
	stats := model.Stats{
		SurveyID:         sv.ID,
		Title:            sv.Title,
		TotalRespondents: len(responses),
		Questions:        make([]model.QuestionStats, 0, len(questions)),
	}

	for _, q := range questions {
		qs := model.QuestionStats{
			ID:   q.ID,
			Text: q.Text,
			Type: q.Type,
		}

		if q.Type == model.FreeText {
			for _, r := range responses {
				if a, ok := r.Answers[q.ID]; ok && !a.IsNull() {
					qs.Answers = append(qs.Answers, a.Text())
				}
			}
			stats.Questions = append(stats.Questions, qs)
			continue
		}

		qs.ChartHint = q.ChartHint
		qs.Summary = map[string]int{}
		for _, r := range responses {
			a, ok := r.Answers[q.ID]
			if !ok {
				continue
			}
			if q.Type == model.MultiChoice {
				values, _ := a.List()
				for _, v := range values {
					qs.Summary[v]++
				}
			} else if v, ok := a.Single(); ok {
				qs.Summary[v]++
			}
		}

		qs.Colors = make(map[string]string, len(qs.Summary))
		for label := range qs.Summary {
			qs.Colors[label] = ChartColor(label)
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats
}

// Stats aggregates every accepted response of the survey, regardless of
// whether it is still open. Results may come from the stats cache, so a
// response accepted moments ago is not guaranteed to show.
func (s *Service) Stats(ctx context.Context, surveyID int) (model.Stats, error) {
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx, surveyID)
		switch {
		case err != nil:
			log.Warnf("survey.stats.cache_get: %s", err)
		case ok:
			s.metrics.ObserveCache(true)
			return stats, nil
		default:
			s.metrics.ObserveCache(false)
		}
	}

	v, err, _ := s.flight.Do(strconv.Itoa(surveyID), func() (any, error) {
		return s.aggregate(ctx, surveyID)
	})
	if err != nil {
		return model.Stats{}, err
	}
	stats := v.(model.Stats)

	if s.cache != nil {
		if err := s.cache.Set(ctx, surveyID, stats); err != nil {
			log.Warnf("survey.stats.cache_set: %s", err)
		}
	}
	return stats, nil
}

func (s *Service) aggregate(ctx context.Context, surveyID int) (model.Stats, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAggregation(time.Since(start)) }()

	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return model.Stats{}, err
	}
	questions := sv.Questions
	if questions == nil {
		questions, err = s.store.ListQuestions(ctx, surveyID)
		if err != nil {
			return model.Stats{}, err
		}
	}
	responses, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return model.Stats{}, err
	}
	return Aggregate(sv, questions, responses), nil
}

func (s *Service) invalidateStats(ctx context.Context, surveyID int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, surveyID); err != nil {
		log.Warnf("survey.stats.cache_invalidate: survey %d: %s", surveyID, err)
	}
}
