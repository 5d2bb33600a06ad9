package stats_api

import (
	"encoding/json"
	"net/http"

	"cityevents/internal/logger"
	"cityevents/internal/stats"
)

type Handler struct {
	StatsService *stats.Service
	Logger       *logger.Logger
}

func NewHandler(statsService *stats.Service, log *logger.Logger) *Handler {
	return &Handler{StatsService: statsService, Logger: log}
}

// Health always answers 200: counters degrade to zero with a notice when
// the store is down, so the board stays reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	counters := h.StatsService.Counters(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(counters)
}
