// internal/api/handler/api/archive_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pulse/internal/storage/archive"
)

func seededStore(t *testing.T) archive.Storage {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "backtests/BTCUSDT/2024-01-01/a.json", []byte(`{"run_id":"a"}`)))
	require.NoError(t, store.Write(ctx, "backtests/BTCUSDT/2024-01-02/b.json", []byte(`{"run_id":"b"}`)))
	require.NoError(t, store.Write(ctx, "backtests/ETHUSDT/2024-01-01/c.json", []byte(`{"run_id":"c"}`)))
	require.NoError(t, store.Write(ctx, "backtests/ETHUSDT/2024-01-01/broken.json", []byte(`not json`)))
	return store
}

func newArchiveMux(store archive.Storage) *http.ServeMux {
	h := NewArchiveHandler(store, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/backtests", h.List)
	mux.HandleFunc("GET /api/backtests/{key...}", h.Get)
	return mux
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

type listBody struct {
	Data struct {
		Runs  []string `json:"runs"`
		Count int      `json:"count"`
	} `json:"data"`
}

func TestArchiveHandler_ListBySymbol(t *testing.T) {
	mux := newArchiveMux(seededStore(t))

	w := get(mux, "/api/backtests?symbol=btcusdt")
	require.Equal(t, http.StatusOK, w.Code)

	var body listBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []string{
		"backtests/BTCUSDT/2024-01-02/b.json",
		"backtests/BTCUSDT/2024-01-01/a.json",
	}, body.Data.Runs)
	assert.Equal(t, 2, body.Data.Count)
}

func TestArchiveHandler_ListAll(t *testing.T) {
	mux := newArchiveMux(seededStore(t))

	w := get(mux, "/api/backtests")
	require.Equal(t, http.StatusOK, w.Code)

	var body listBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 4, body.Data.Count)
	assert.Equal(t, "backtests/ETHUSDT/2024-01-01/c.json", body.Data.Runs[0])
}

func TestArchiveHandler_ListUnknownSymbol(t *testing.T) {
	mux := newArchiveMux(seededStore(t))

	w := get(mux, "/api/backtests?symbol=SOLUSDT")
	require.Equal(t, http.StatusOK, w.Code)

	var body listBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Empty(t, body.Data.Runs)
}

func TestArchiveHandler_Get(t *testing.T) {
	mux := newArchiveMux(seededStore(t))

	w := get(mux, "/api/backtests/backtests/BTCUSDT/2024-01-02/b.json")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "b", body.Data.RunID)
}

func TestArchiveHandler_GetErrors(t *testing.T) {
	mux := newArchiveMux(seededStore(t))

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing run", "/api/backtests/backtests/BTCUSDT/2024-01-03/z.json", http.StatusNotFound, "ARCHIVE_NOT_FOUND"},
		{"not a run key", "/api/backtests/config.yaml", http.StatusBadRequest, "CONFIG_INVALID"},
		{"corrupt document", "/api/backtests/backtests/ETHUSDT/2024-01-01/broken.json", http.StatusBadGateway, "DECODE_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(mux, tt.target)
			assert.Equal(t, tt.status, w.Code)

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

type failingStore struct{ archive.Storage }

func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("bucket unreachable")
}

func TestArchiveHandler_StoreFailure(t *testing.T) {
	w := get(newArchiveMux(failingStore{}), "/api/backtests")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestArchiveHandler_Disabled(t *testing.T) {
	mux := newArchiveMux(nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(mux, "/api/backtests").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(mux, "/api/backtests/backtests/BTCUSDT/2024-01-01/a.json").Code)
}
