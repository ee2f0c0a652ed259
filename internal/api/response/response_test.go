// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/pulse/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"hello": "world"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.ErrConfigInvalid

	Error(w, http.StatusBadRequest, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "CONFIG_INVALID" {
		t.Errorf("expected CONFIG_INVALID, got %s", resp.Error.Code)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.WrapError(core.ErrNoData, nil)

	Error(w, http.StatusNotFound, err)

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "NO_DATA" {
		t.Errorf("expected NO_DATA, got %s", resp.Error.Code)
	}
}

func TestAlert_CarriesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.WrapError(core.ErrBackendStatus, &core.StatusError{StatusCode: 500, Body: "boom"})

	Alert(w, http.StatusBadGateway, err, "Backtest failed: 500")

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "BACKEND_STATUS" {
		t.Errorf("expected BACKEND_STATUS, got %s", resp.Error.Code)
	}
	if resp.Error.Alert != "Backtest failed: 500" {
		t.Errorf("unexpected alert %q", resp.Error.Alert)
	}
	if resp.Error.Cause != "status 500: boom" {
		t.Errorf("unexpected cause %q", resp.Error.Cause)
	}
}

func TestError_PlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusInternalServerError, errors.New("disk full"))

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Errorf("plain errors must not leak a cause, got %q", resp.Error.Cause)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{core.WrapError(core.ErrRegionNotFound, nil), http.StatusNotFound},
		{core.WrapError(core.ErrArchiveNotFound, errors.New("gone")), http.StatusNotFound},
		{core.ErrCSRFFailed, http.StatusForbidden},
		{core.ErrConfigMissing, http.StatusBadRequest},
		{core.ErrNoData, http.StatusUnprocessableEntity},
		{fmt.Errorf("run: %w", core.WrapError(core.ErrBackendStatus, nil)), http.StatusBadGateway},
		{core.ErrBackendFailed, http.StatusBadGateway},
		{core.ErrDecodeFailed, http.StatusBadGateway},
		{core.ErrRenderFailed, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
