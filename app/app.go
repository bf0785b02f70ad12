package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-portal/config"
	"github.com/mbolis/survey-portal/metrics"
	"github.com/mbolis/survey-portal/survey"
)

// App carries what the HTTP controllers share.
type App struct {
	Surveys *survey.Service
	Metrics *metrics.Collector
	*oauth.BearerServer
	config.Config
}
