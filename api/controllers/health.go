package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/pkg/config"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
)

// Pinger is the health-probe surface of a datastore client.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VetLink-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness, probing the datastore dependencies. Probes
// are optional; a nil probe is skipped.
func HealthReady(cfg *config.Config, db Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VetLink-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, probe := range map[string]Pinger{"database": db, "redis": cache} {
			if probe == nil {
				continue
			}
			if err := probe.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
			checks[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
