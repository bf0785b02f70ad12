package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/config"
	"github.com/mbolis/survey-portal/database"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/metrics"
	"github.com/mbolis/survey-portal/routes"
	"github.com/mbolis/survey-portal/statscache"
	"github.com/mbolis/survey-portal/survey"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := database.NewStore(db, cfg.DBDriver)
	if cfg.AdminUser != "" {
		err = bootstrapOperator(store, cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.db.operator:", err)
		}
	}

	collector := metrics.New()
	opts := []survey.Option{survey.WithMetrics(collector)}
	if cfg.RedisURL != "" {
		cache, err := statscache.Open(context.Background(), cfg.RedisURL, cfg.StatsTTL)
		if err != nil {
			log.Fatal("main.redis.open:", err)
		}
		defer cache.Close()
		opts = append(opts, survey.WithCache(cache))
	}

	app := app.App{
		Surveys:      survey.NewService(store, opts...),
		Metrics:      collector,
		BearerServer: httpx.NewBearerServer(store, cfg),
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func bootstrapOperator(store *database.Store, username, password string) error {
	hash, err := httpx.HashPassword(password)
	if err != nil {
		return err
	}
	return store.SaveOperator(context.Background(), username, hash)
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
