package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/shalom-garden/storefront-backend/api/responses"
	"github.com/shalom-garden/storefront-backend/pkg/config"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

const readyCheckTimeout = 5 * time.Second

// Pinger is the dependency health surface checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports the combined result.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		var combined error
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("db: %w", err))
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("redis: %w", err))
			}
		}

		if combined != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "dependencies not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
