package sources_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cityevents/internal/apperrors"
	"cityevents/internal/logger"
	"cityevents/internal/sources"
	syncsvc "cityevents/internal/sync"
)

type Handler struct {
	SourceService *sources.Service
	SyncService   *syncsvc.Service
	Logger        *logger.Logger
}

func NewHandler(sourceService *sources.Service, syncService *syncsvc.Service, log *logger.Logger) *Handler {
	return &Handler{SourceService: sourceService, SyncService: syncService, Logger: log}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func adminCode(r *http.Request) string {
	return r.Header.Get("X-Admin-Code")
}

func (h *Handler) AddSource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type string `json:"type"`
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	source, err := h.SourceService.AddSource(r.Context(), body.Type, body.URL, body.Name, adminCode(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddSource: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

func (h *Handler) RemoveSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sourceId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid source id", http.StatusBadRequest)
		return
	}

	if err := h.SourceService.RemoveSource(r.Context(), id, adminCode(r)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RemoveSource: id=%d: %v", id, err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkAddSources takes newline-separated "type,url,name" lines; malformed
// lines are skipped, not errors.
func (h *Handler) BulkAddSources(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lines string `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.SourceService.BulkAddSources(r.Context(), body.Lines, adminCode(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("BulkAddSources: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	list, err := h.SourceService.ListSources(r.Context(), adminCode(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSources: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sources": list})
}

// RunSync triggers one sync run across all active ICS sources. Per-source
// failures are folded into the report, never into the response status.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.SyncService.Run(r.Context(), adminCode(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RunSync: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, report)
}
