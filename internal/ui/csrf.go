package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

// Double-submit CSRF protection: a random cookie whose value every form
// post must echo in csrf_token (or the X-CSRF-Token header).
const (
	csrfCookieName = "qp_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfTokenBytes = 32
)

type csrfTokenKey struct{}

// EnsureCSRFToken issues the cookie on first visit and exposes the token to
// page renderers through the request context.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieToken(r)
		if token == "" {
			token = newCSRFToken()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteStrictMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token)))
	})
}

// RequireCSRF rejects state-changing requests whose submitted token does not
// match the cookie.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		want := cookieToken(r)
		if want == "" {
			renderHTML(w, http.StatusForbidden, errorPage("CSRF Validation Failed", "The session cookie is missing. Reload the page and try again."))
			return
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(submittedToken(r))) != 1 {
			renderHTML(w, http.StatusForbidden, errorPage("CSRF Validation Failed", "The form token does not match. Reload the page and try again."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfInput renders the hidden form field carrying the request's token.
func csrfInput(r *http.Request) gomponents.Node {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	if token == "" {
		token = cookieToken(r)
	}
	return html.Input(html.Type("hidden"), html.Name(csrfFormField), html.Value(token))
}

func submittedToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(csrfHeader)); v != "" {
		return v
	}
	_ = r.ParseForm()
	return strings.TrimSpace(r.PostForm.Get(csrfFormField))
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func newCSRFToken() string {
	b := make([]byte, csrfTokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
