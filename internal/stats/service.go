// Package stats serves the home/health counters. Counter reads never fail
// the caller: if the store is unreachable the board stays browsable with
// zeroed counts and an advisory notice.
package stats

import (
	"context"
	"fmt"

	"cityevents/internal/logger"
	"cityevents/internal/models"
)

type EventCounter interface {
	CountByStatus(ctx context.Context, status models.EventStatus) (int, error)
}

type SourceCounter interface {
	CountSources(ctx context.Context) (int, error)
}

type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

type Counters struct {
	OK             bool   `json:"ok"`
	Users          int    `json:"users"`
	ApprovedEvents int    `json:"approved_events"`
	PendingEvents  int    `json:"pending_events"`
	Sources        int    `json:"sources"`
	Notice         string `json:"notice,omitempty"`
}

type Service struct {
	Events  EventCounter
	Sources SourceCounter
	Users   UserCounter
	Logger  *logger.Logger
}

func NewService(events EventCounter, sources SourceCounter, users UserCounter, log *logger.Logger) *Service {
	return &Service{Events: events, Sources: sources, Users: users, Logger: log}
}

// Counters gathers the board totals, degrading each to zero on storage
// failure.
func (s *Service) Counters(ctx context.Context) Counters {
	counters := Counters{OK: true}

	approved, err := s.Events.CountByStatus(ctx, models.StatusApproved)
	if err != nil {
		s.Logger.Warn("STATS", fmt.Sprintf("approved count unavailable: %v", err))
		counters.OK = false
	}
	counters.ApprovedEvents = approved

	pending, err := s.Events.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		s.Logger.Warn("STATS", fmt.Sprintf("pending count unavailable: %v", err))
		counters.OK = false
	}
	counters.PendingEvents = pending

	sources, err := s.Sources.CountSources(ctx)
	if err != nil {
		s.Logger.Warn("STATS", fmt.Sprintf("source count unavailable: %v", err))
		counters.OK = false
	}
	counters.Sources = sources

	users, err := s.Users.CountUsers(ctx)
	if err != nil {
		s.Logger.Warn("STATS", fmt.Sprintf("user count unavailable: %v", err))
		counters.OK = false
	}
	counters.Users = users

	if !counters.OK {
		counters.Notice = "some counters are temporarily unavailable"
	}
	return counters
}
