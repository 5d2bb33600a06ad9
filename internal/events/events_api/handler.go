package events_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"cityevents/internal/apperrors"
	"cityevents/internal/events"
	"cityevents/internal/logger"
	"cityevents/internal/models"
)

type Handler struct {
	EventService *events.Service
	Logger       *logger.Logger
}

func NewHandler(eventService *events.Service, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
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

func eventID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
}

func filterFromQuery(r *http.Request) models.EventFilter {
	q := r.URL.Query()
	kidsOnly := false
	if v := q.Get("kids"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			kidsOnly = parsed
		}
	}
	return models.EventFilter{
		City:     q.Get("city"),
		Date:     q.Get("date"),
		KidsOnly: kidsOnly,
	}
}

// SubmitEvent accepts a manual submission and queues it for moderation.
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
		Date  string `json:"date"`
		When  string `json:"when"`
		City  string `json:"city"`
		Kids  bool   `json:"kids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.SubmitEvent(r.Context(), body.Title, body.Date, body.When, body.City, body.Kids)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitEvent: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListApproved serves the public feed. A storage failure degrades to an
// empty feed with an advisory notice so the board stays browsable.
func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListApproved(r.Context(), filterFromQuery(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListApproved: %v", err))
		writeJSON(w, http.StatusOK, map[string]any{
			"events": []models.Event{},
			"notice": "events are temporarily unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

// ListPending serves the moderation queue to administrators.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListPending(r.Context(), adminCode(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListPending: %v", err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	if err := h.EventService.ApproveEvent(r.Context(), id, adminCode(r)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApproveEvent: id=%d: %v", id, err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusApproved)})
}

func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	if err := h.EventService.RejectEvent(r.Context(), id, adminCode(r)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectEvent: id=%d: %v", id, err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCities serves the filter picker values, degrading like the feed.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.EventService.Cities(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCities: %v", err))
		writeJSON(w, http.StatusOK, map[string]any{
			"cities": []string{},
			"notice": "cities are temporarily unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

// MonthCalendar serves the month grid: one group per day, empty days
// included.
func (h *Handler) MonthCalendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")

	days, err := h.EventService.MonthCalendar(r.Context(), month, filterFromQuery(r))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("MonthCalendar: %v", err))
		writeJSON(w, http.StatusOK, map[string]any{
			"month":  month,
			"days":   []models.CalendarDay{},
			"notice": "calendar is temporarily unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"month": month, "days": days})
}

// EventQR renders a PNG code pointing at the event's share URL, for
// posters and flyers.
func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	shareURL, err := h.EventService.ShareURL(r.Context(), id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventQR: id=%d: %v", id, err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventQR: encode failed: %v", err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
