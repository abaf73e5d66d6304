package ui

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomponents "maragu.dev/gomponents"
)

func TestRequireCSRF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		method    string
		cookie    string
		formToken string
		header    string
		want      int
	}{
		{name: "get passes without cookie", method: http.MethodGet, want: http.StatusNoContent},
		{name: "post without cookie", method: http.MethodPost, formToken: "abc123", want: http.StatusForbidden},
		{name: "post without token", method: http.MethodPost, cookie: "abc123", want: http.StatusForbidden},
		{name: "post with mismatched token", method: http.MethodPost, cookie: "abc123", formToken: "other", want: http.StatusForbidden},
		{name: "post with matching form token", method: http.MethodPost, cookie: "abc123", formToken: "abc123", want: http.StatusNoContent},
		{name: "post with matching header", method: http.MethodPost, cookie: "abc123", header: "abc123", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := &Handler{}
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			form := url.Values{"prompt": {"x"}}
			if tt.formToken != "" {
				form.Set(csrfFormField, tt.formToken)
			}
			r := httptest.NewRequest(tt.method, "/ui/ask", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set(csrfHeader, tt.header)
			}
			rr := httptest.NewRecorder()

			h.RequireCSRF(next).ServeHTTP(rr, r)
			require.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rr.Body.String(), "CSRF Validation Failed")
			}
		})
	}
}

func TestEnsureCSRFToken(t *testing.T) {
	t.Parallel()

	var seen gomponents.Node
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = csrfInput(r)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("issues cookie when missing", func(t *testing.T) {
		h := &Handler{Production: true}
		rr := httptest.NewRecorder()
		h.EnsureCSRFToken(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/", nil))

		require.Equal(t, http.StatusNoContent, rr.Code)
		setCookie := rr.Header().Get("Set-Cookie")
		require.Contains(t, setCookie, csrfCookieName+"=")
		assert.Contains(t, setCookie, "Secure")
		assert.Contains(t, setCookie, "HttpOnly")

		var b strings.Builder
		require.NoError(t, seen.Render(&b))
		assert.Contains(t, b.String(), `name="csrf_token"`)
		assert.NotContains(t, b.String(), `value=""`)
	})

	t.Run("reuses existing cookie", func(t *testing.T) {
		h := &Handler{}
		r := httptest.NewRequest(http.MethodGet, "/ui/", nil)
		r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
		rr := httptest.NewRecorder()
		h.EnsureCSRFToken(next).ServeHTTP(rr, r)

		assert.Empty(t, rr.Header().Get("Set-Cookie"))
		var b strings.Builder
		require.NoError(t, seen.Render(&b))
		assert.Contains(t, b.String(), `value="existing"`)
	})
}

func TestNewCSRFToken_Unique(t *testing.T) {
	t.Parallel()
	a, b := newCSRFToken(), newCSRFToken()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
