package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/model"
)

const thankYou = "Thank you, your answers have been recorded."

func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		survey, err := app.Surveys.OpenSurvey(r.Context(), slug)
		if err != nil {
			httpx.LogError(w, r, "get_survey."+slug, err)
			return
		}

		render.JSON(w, r, survey)
	}
}

type submission struct {
	Answers model.AnswerSet `json:"answers"`
}

func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		body := submission{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.Answers == nil {
			httpx.LogStatusMsg(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "submit_survey.answers", "answers are required")
			return
		}

		response, err := app.Surveys.SubmitBySlug(r.Context(), slug, httpx.ClientAddress(r), body.Answers)
		if err != nil {
			httpx.LogError(w, r, "submit_survey."+slug, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": thankYou,
			"id":      response.ID,
		})
	}
}

func PublicCheckAnswered(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		answered, err := app.Surveys.HasSubmittedBySlug(r.Context(), slug, httpx.ClientAddress(r))
		if err != nil {
			httpx.LogError(w, r, "check_answered."+slug, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"already_answered": answered,
		})
	}
}
