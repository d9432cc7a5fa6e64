package restapi

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

const maxRequestIDLen = 128

var requestIDShape = regexp.MustCompile(`^[a-zA-Z0-9-._:]+$`)

// RequestIDMiddleware tags every request with an ID, echoed back in the
// X-Request-ID response header and stashed in the request context. A
// well-formed inbound X-Request-ID is honored so callers can correlate
// across services; anything else gets a fresh UUID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := acceptableRequestID(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptableRequestID(candidate string) string {
	if candidate == "" || len(candidate) > maxRequestIDLen {
		return ""
	}
	if !requestIDShape.MatchString(candidate) {
		return ""
	}
	return candidate
}

// GetRequestID reads the request ID back out of a context, or returns
// an empty string when the middleware never ran.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
