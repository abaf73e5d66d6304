// Package middleware holds the HTTP middleware shared by the API and UI routes.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"querypilot/internal/domain"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// validRequestID limits client-supplied IDs to characters safe for log lines.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID tags each request with an ID, reusing a well-formed incoming
// X-Request-ID and minting a UUID otherwise. The ID is echoed on the response
// and stored with domain.WithRequestID so services can log it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := domain.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
