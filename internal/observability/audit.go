package observability

import (
	"log/slog"
	"net/http"
)

// Audit emits a structured audit event for a request. Session validation
// failures are audited with their precise kind here while the HTTP response
// stays an undifferentiated 401.
func Audit(r *http.Request, event string, attrs ...any) {
	record := make([]any, 0, 6+len(attrs))
	record = append(record,
		slog.String("event", event),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	if id := r.Header.Get("X-Request-Id"); id != "" {
		record = append(record, slog.String("request_id", id))
	}
	record = append(record, attrs...)
	slog.InfoContext(r.Context(), "audit", record...)
}
