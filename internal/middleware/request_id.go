package middleware

import (
	"net/http"
	"regexp"

	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/utils"
)

// HeaderRequestID is echoed on every response and forwarded to USPS
const HeaderRequestID = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestIDMiddleware keeps a well-formed incoming X-Request-ID or generates
// one, stores it in the request context for logging and outbound calls, and
// sets it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = utils.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}
