package middleware

import (
	"log/slog"
	"net/http"

	"github.com/irislabs/iris-api/internal/api/shared"
	"github.com/irislabs/iris-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and binds a
// trace-scoped logger into it so downstream handlers and services log with
// the same ID. Apply it early in the middleware chain.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.Default().With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
