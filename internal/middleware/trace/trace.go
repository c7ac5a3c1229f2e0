// Package trace assigns every request an ID, echoed in the X-Request-ID
// response header and attached to the request logger.
package trace

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	applog "mosques/internal/log"
)

const HeaderRequestID = "X-Request-ID"

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// GenerateRequestID returns a new random request ID.
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// validIncoming accepts caller-supplied IDs made of a short run of
// letters, digits, '-' and '_'.
func validIncoming(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Middleware reuses a well-formed incoming X-Request-ID or generates one,
// stores it in the context and logs the request start at debug level.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validIncoming(id) {
			id = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		logger := applog.FromContext(ctx).With(applog.FieldRequestID, id)
		ctx = applog.WithLogger(ctx, logger)

		logger.WithComponent(applog.ComponentHTTP).DebugContext(ctx, "HTTP request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
