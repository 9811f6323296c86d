package middlewares

import (
	"net/http"

	"bitbucket.org/insurance/payments/helpers"
	"github.com/lithammer/shortuuid/v3"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// LoggerRequest attaches a request scoped logger to the request context and
// echoes the request id back to the caller.
func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = shortuuid.New()
	}
	rw.Header().Set(RequestIDHeader, requestID)

	requestLogger := log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     r.Method,
		"query":      r.URL.Query(),
		"host":       r.Host,
		"url":        r.URL.Path,
	})
	requestLogger.Info("logger_request")

	next(rw, r.WithContext(helpers.WithLogger(r.Context(), requestLogger)))
}
