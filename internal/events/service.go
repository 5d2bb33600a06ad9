package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cityevents/internal/apperrors"
	"cityevents/internal/logger"
	"cityevents/internal/models"
)

// DateLayout is the wire and storage format for event dates.
const DateLayout = "2006-01-02"

const monthLayout = "2006-01"

type EventDBLayer interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ApprovePending(ctx context.Context, id int64) (int64, error)
	DeleteEvent(ctx context.Context, id int64) (int64, error)
	ListApproved(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	ListApprovedBetween(ctx context.Context, from, to string, f models.EventFilter) ([]models.Event, error)
	ListByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error)
	DistinctCities(ctx context.Context) ([]string, error)
}

// CityCache caches the distinct-cities picker set. A nil cache disables
// caching entirely.
type CityCache interface {
	GetCities(ctx context.Context) ([]string, bool)
	SetCities(ctx context.Context, cities []string)
	Invalidate(ctx context.Context)
}

type Service struct {
	DB     EventDBLayer
	Cache  CityCache
	Logger *logger.Logger

	adminCode     string
	publicBaseURL string
}

func NewService(db EventDBLayer, cache CityCache, log *logger.Logger, adminCode, publicBaseURL string) *Service {
	return &Service{
		DB:            db,
		Cache:         cache,
		Logger:        log,
		adminCode:     adminCode,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// authorize gates every privileged operation on the shared admin code.
// An unset code refuses everything rather than allowing everything.
func (s *Service) authorize(code string) error {
	if s.adminCode == "" || code != s.adminCode {
		return fmt.Errorf("%w: admin code mismatch", apperrors.ErrUnauthorized)
	}
	return nil
}

// SubmitEvent creates a manually submitted event in pending status. The
// kids flag is taken verbatim from the caller; keyword inference only
// applies to imports.
func (s *Service) SubmitEvent(ctx context.Context, title, date, whenText, city string, kids bool) (*models.Event, error) {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	whenText = strings.TrimSpace(whenText)
	city = strings.TrimSpace(city)

	if title == "" || date == "" || whenText == "" || city == "" {
		return nil, fmt.Errorf("%w: title, date, when and city are required", apperrors.ErrValidation)
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidation)
	}

	event := &models.Event{
		Title:     title,
		Date:      parsed.Format(DateLayout),
		WhenText:  whenText,
		City:      city,
		Kids:      kids,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.DB.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: insert event: %v", apperrors.ErrStorage, err)
	}

	s.Logger.LogModeration("SUBMIT", event.ID, fmt.Sprintf("%q queued for review", event.Title))
	return event, nil
}

// ApproveEvent moves a pending event to approved. The admin gate runs
// before any lookup so a wrong code is reported as an authorization
// failure even for a nonexistent id. Approving an already approved row is
// an idempotent no-op.
func (s *Service) ApproveEvent(ctx context.Context, id int64, authCode string) error {
	if err := s.authorize(authCode); err != nil {
		return err
	}

	rows, err := s.DB.ApprovePending(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: approve event: %v", apperrors.ErrStorage, err)
	}
	if rows == 0 {
		event, err := s.DB.GetEventByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: event %d", apperrors.ErrNotFound, id)
			}
			return fmt.Errorf("%w: load event: %v", apperrors.ErrStorage, err)
		}
		// Row exists but was not pending: already approved, nothing to do.
		s.Logger.LogModeration("APPROVE", event.ID, "already approved")
		return nil
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
	s.Logger.LogModeration("APPROVE", id, "published to feed")
	return nil
}

// RejectEvent permanently removes an event. Same gate ordering as approve.
func (s *Service) RejectEvent(ctx context.Context, id int64, authCode string) error {
	if err := s.authorize(authCode); err != nil {
		return err
	}

	rows, err := s.DB.DeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: reject event: %v", apperrors.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: event %d", apperrors.ErrNotFound, id)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
	s.Logger.LogModeration("REJECT", id, "removed")
	return nil
}

// ListPending returns the moderation queue.
func (s *Service) ListPending(ctx context.Context, authCode string) ([]models.Event, error) {
	if err := s.authorize(authCode); err != nil {
		return nil, err
	}
	events, err := s.DB.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending: %v", apperrors.ErrStorage, err)
	}
	return events, nil
}

// ListApproved answers the public feed query.
func (s *Service) ListApproved(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	events, err := s.DB.ListApproved(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: list approved: %v", apperrors.ErrStorage, err)
	}
	return events, nil
}

// Cities returns the sorted distinct city set among approved events,
// served from cache when one is configured.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	if s.Cache != nil {
		if cities, ok := s.Cache.GetCities(ctx); ok {
			return cities, nil
		}
	}

	cities, err := s.DB.DistinctCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: distinct cities: %v", apperrors.ErrStorage, err)
	}

	if s.Cache != nil {
		s.Cache.SetCities(ctx, cities)
	}
	return cities, nil
}

// MonthCalendar groups approved events by date within one calendar month.
// Every day of the month is present; days with no events carry an empty
// group.
func (s *Service) MonthCalendar(ctx context.Context, month string, f models.EventFilter) ([]models.CalendarDay, error) {
	first, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", apperrors.ErrValidation)
	}
	last := first.AddDate(0, 1, -1)

	events, err := s.DB.ListApprovedBetween(ctx, first.Format(DateLayout), last.Format(DateLayout), f)
	if err != nil {
		return nil, fmt.Errorf("%w: month calendar: %v", apperrors.ErrStorage, err)
	}

	byDate := make(map[string][]models.Event, last.Day())
	for _, event := range events {
		byDate[event.Date] = append(byDate[event.Date], event)
	}

	days := make([]models.CalendarDay, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC).Format(DateLayout)
		group := byDate[date]
		if group == nil {
			group = make([]models.Event, 0)
		}
		days = append(days, models.CalendarDay{Date: date, Events: group})
	}
	return days, nil
}

// ShareURL resolves the link encoded into an event's QR code: the event's
// own origin URL when it has one, else its public board page. Only
// approved events are shareable.
func (s *Service) ShareURL(ctx context.Context, id int64) (string, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: event %d", apperrors.ErrNotFound, id)
		}
		return "", fmt.Errorf("%w: load event: %v", apperrors.ErrStorage, err)
	}
	if event.Status != models.StatusApproved {
		return "", fmt.Errorf("%w: event %d", apperrors.ErrNotFound, id)
	}
	if event.URL != "" {
		return event.URL, nil
	}
	return fmt.Sprintf("%s/events/%d", s.publicBaseURL, id), nil
}
