package helpers

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type loggerKey struct{}

// WithLogger stores a request scoped logger in ctx.
func WithLogger(ctx context.Context, logger *log.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext returns the request logger or the standard logger when
// none was attached.
func LoggerFromContext(ctx context.Context) *log.Entry {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*log.Entry); ok && logger != nil {
			return logger
		}
	}
	return log.NewEntry(log.StandardLogger())
}
