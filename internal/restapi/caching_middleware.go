package restapi

import (
	"fmt"
	"net/http"
)

const noStore = "no-cache, no-store, must-revalidate"

// CacheControlMiddleware stamps responses with a Cache-Control header.
// A positive duration marks 2xx responses publicly cacheable for that
// many seconds; zero or negative disables caching for the route. Error
// responses always go out uncacheable regardless of the duration, so a
// transient 500 never lingers in an intermediary.
func CacheControlMiddleware(durationSeconds int, next http.Handler) http.Handler {
	okValue := noStore
	if durationSeconds > 0 {
		okValue = fmt.Sprintf("public, max-age=%d", durationSeconds)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheStamper{ResponseWriter: w, okValue: okValue}, r)
	})
}

// cacheStamper defers the Cache-Control decision until the status code
// is known.
type cacheStamper struct {
	http.ResponseWriter
	okValue string
	stamped bool
}

func (s *cacheStamper) WriteHeader(code int) {
	if !s.stamped {
		s.stamped = true
		value := noStore
		if code >= 200 && code < 300 {
			value = s.okValue
		}
		s.ResponseWriter.Header().Set("Cache-Control", value)
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *cacheStamper) Write(b []byte) (int, error) {
	if !s.stamped {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}
