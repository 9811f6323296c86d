package api

import (
	"net/http"

	"bitbucket.org/insurance/payments/config"
	"bitbucket.org/insurance/payments/middlewares"
)

type healthResponse struct {
	Passed bool `json:"passed"`
}

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// HealthHandler reports whether the database answers a ping.
func HealthHandler(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	passed := ctx.DB != nil
	if passed {
		if err := ctx.DB.Ping(r.Context()); err != nil {
			w.Logger.WithField("error", err).Warn("database ping failed")
			passed = false
		}
	}

	w.WriteJSON(http.StatusOK, healthResponse{Passed: passed}, nil, "")
}

func PingHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "PONG")
}
