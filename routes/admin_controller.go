package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/model"
)

func urlID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, false
	}
	return id, true
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.Survey{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.Surveys.CreateSurvey(r.Context(), in)
		if err != nil {
			httpx.LogError(w, r, "create_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Surveys.ListSurveys(r.Context())
		if err != nil {
			httpx.LogError(w, r, "list_surveys", err)
			return
		}
		if surveys == nil {
			surveys = []model.SurveyListing{}
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		survey, err := app.Surveys.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "get_survey."+strconv.Itoa(surveyId), err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		in := model.Survey{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		_, err = app.Surveys.UpdateSurvey(r.Context(), surveyId, in)
		if err != nil {
			httpx.LogError(w, r, "update_survey."+strconv.Itoa(surveyId), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		err := app.Surveys.DeleteSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "delete_survey."+strconv.Itoa(surveyId), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveyStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		stats, err := app.Surveys.Stats(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "survey_stats."+strconv.Itoa(surveyId), err)
			return
		}

		render.JSON(w, r, stats)
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		responses, err := app.Surveys.ListResponses(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "get_responses."+strconv.Itoa(surveyId), err)
			return
		}
		if responses == nil {
			responses = []model.Response{}
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r)
		if !ok {
			return
		}

		spec := model.QuestionSpec{}
		err := render.DecodeJSON(r.Body, &spec)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		question, err := app.Surveys.AddQuestion(r.Context(), surveyId, spec)
		if err != nil {
			httpx.LogError(w, r, "add_question."+strconv.Itoa(surveyId), err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, ok := urlID(w, r)
		if !ok {
			return
		}

		err := app.Surveys.RemoveQuestion(r.Context(), questionId)
		if err != nil {
			httpx.LogError(w, r, "delete_question."+strconv.Itoa(questionId), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
