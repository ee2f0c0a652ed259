// internal/api/handler/api/archive.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/api/response"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/storage/archive"
)

// ArchiveHandler serves backtest runs saved by the renderer.
type ArchiveHandler struct {
	store  archive.Storage
	logger *zap.Logger
}

// NewArchiveHandler creates a new archive handler. A nil store answers
// every request with 503.
func NewArchiveHandler(store archive.Storage, logger *zap.Logger) *ArchiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveHandler{store: store, logger: logger}
}

// List returns archived run keys in reverse key order, so a symbol's latest
// dates come first. ?symbol= narrows the listing to one symbol.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	keys, err := h.store.List(r.Context(), archive.BacktestPrefix(symbol))
	if err != nil {
		h.logger.Error("listing archive failed", zap.String("symbol", symbol), zap.Error(err))
		response.Error(w, http.StatusBadGateway, core.WrapError(core.ErrArchiveFailed, err))
		return
	}

	runs := make([]string, 0, len(keys))
	for _, k := range keys {
		if archive.IsBacktestKey(k) {
			runs = append(runs, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))

	response.JSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one archived run document.
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	key := r.PathValue("key")
	if !archive.IsBacktestKey(key) {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, errors.New("not a backtest archive key")))
		return
	}

	data, err := h.store.Read(r.Context(), key)
	if err != nil {
		if errors.Is(err, core.ErrArchiveNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("reading archive failed", zap.String("key", key), zap.Error(err))
		response.Error(w, http.StatusBadGateway, core.WrapError(core.ErrArchiveFailed, err))
		return
	}
	if !json.Valid(data) {
		response.Error(w, http.StatusBadGateway,
			core.WrapError(core.ErrDecodeFailed, errors.New("archived run is not JSON")))
		return
	}

	response.JSON(w, http.StatusOK, json.RawMessage(data))
}

func (h *ArchiveHandler) enabled(w http.ResponseWriter) bool {
	if h.store != nil {
		return true
	}
	response.Error(w, http.StatusServiceUnavailable,
		core.WrapError(core.ErrConfigMissing, errors.New("archive not enabled")))
	return false
}
