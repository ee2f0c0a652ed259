package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/newthinker/pulse/internal/api/response"
	"github.com/newthinker/pulse/internal/core"
)

// CSRF request fields.
const (
	CSRFHeader    = "X-CSRFToken"
	CSRFFormField = "csrfmiddlewaretoken"
)

// CSRF returns double-submit middleware: unsafe requests must echo the
// value of the named cookie in the X-CSRFToken header or the
// csrfmiddlewaretoken form field.
func CSRF(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				response.Error(w, http.StatusForbidden,
					core.WrapError(core.ErrCSRFFailed, http.ErrNoCookie))
				return
			}

			submitted := r.Header.Get(CSRFHeader)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFormField)
			}
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) != 1 {
				response.Error(w, http.StatusForbidden,
					core.WrapError(core.ErrCSRFFailed, nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EnsureCSRFCookie returns the request's CSRF token, issuing a new cookie
// when the request carries none.
func EnsureCSRFCookie(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
