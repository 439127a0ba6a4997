package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/responses"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthDeps lists the dependencies the readiness probe checks. Nil
// entries are skipped so partial wiring (tests, worker binaries) still
// probes cleanly.
type HealthDeps struct {
	DB       pinger
	Redis    pinger
	PubSub   pinger
	Provider pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Potluck-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, deps HealthDeps) http.HandlerFunc {
	checks := map[string]pinger{
		"db":       deps.DB,
		"redis":    deps.Redis,
		"pubsub":   deps.PubSub,
		"provider": deps.Provider,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Potluck-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "ready"}
		healthy := true
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
