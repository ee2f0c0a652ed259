package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRF_SafeMethodPasses(t *testing.T) {
	w := httptest.NewRecorder()
	CSRF("csrftoken")(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/backtest", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRF_HeaderMatchesCookie(t *testing.T) {
	req := httptest.NewRequest("POST", "/backtest/run", nil)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	w := httptest.NewRecorder()

	CSRF("csrftoken")(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRF_FormFieldMatchesCookie(t *testing.T) {
	body := url.Values{CSRFFormField: {"tok"}, "bt_symbol": {"ETHUSDT"}}.Encode()
	req := httptest.NewRequest("POST", "/backtest/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
	w := httptest.NewRecorder()

	var symbol string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol = r.PostFormValue("bt_symbol")
	})
	CSRF("csrftoken")(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ETHUSDT", symbol)
}

func TestCSRF_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"no cookie", "", "tok"},
		{"no token", "tok", ""},
		{"mismatch", "tok", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/backtest/run", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "csrftoken", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeader, tt.header)
			}
			w := httptest.NewRecorder()

			CSRF("csrftoken")(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "CSRF_FAILED")
		})
	}
}

func TestEnsureCSRFCookie(t *testing.T) {
	w := httptest.NewRecorder()
	token := EnsureCSRFCookie(w, httptest.NewRequest("GET", "/backtest", nil), "csrftoken")

	require.Len(t, token, 32)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "csrftoken", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)

	req := httptest.NewRequest("GET", "/backtest", nil)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "existing"})
	w = httptest.NewRecorder()

	assert.Equal(t, "existing", EnsureCSRFCookie(w, req, "csrftoken"))
	assert.Empty(t, w.Result().Cookies())
}
