package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	if app.TrustProxy {
		root.Use(middleware.RealIP)
	}
	root.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Mount("/api", apiRouter(app))
	if app.Metrics != nil {
		root.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	}

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	submit := PublicSubmitSurvey(app)
	if app.SubmitRate > 0 {
		submit = httpx.NewRateLimiter(app.SubmitRate).Handler(submit).ServeHTTP
	}

	api.Get("/survey/{slug}", PublicGetSurvey(app))
	api.Post("/survey/{slug}/submit", submit)
	api.Get("/surveys/{slug}/check", PublicCheckAnswered(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))

		r.Get(`/surveys/{id:^\d+$}/stats`, GetSurveyStats(app))
		r.Get(`/surveys/{id:^\d+$}/responses`, GetSurveyResponses(app))

		r.Post(`/surveys/{id:^\d+$}/questions`, AddQuestion(app))
		r.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
