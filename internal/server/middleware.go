package server

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// instrument records request count and latency under the route pattern, so
// path parameters do not inflate metric cardinality.
func (a *API) instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		a.metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, m.Code, m.Duration)
		a.logger.DebugContext(r.Context(), "request served",
			slog.String("route", pattern),
			slog.Int("status", m.Code),
			slog.Duration("duration", m.Duration))
	})
}

func tracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "execassist.api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
