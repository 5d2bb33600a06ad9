package sync

import (
	"context"
	"fmt"
	"time"

	"cityevents/internal/apperrors"
	"cityevents/internal/models"
)

// UpsertResult says what happened to one candidate.
type UpsertResult int

const (
	Inserted UpsertResult = iota
	Skipped
)

type EventWriter interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	InsertImportedEvent(ctx context.Context, event *models.Event) (bool, error)
	ExistsBySourceKey(ctx context.Context, source, sourceID string) (bool, error)
}

// Upserter decides whether a candidate already exists and writes it with
// the correct initial status: imports publish immediately, anything else
// enters the moderation queue.
type Upserter struct {
	DB EventWriter
}

func NewUpserter(db EventWriter) *Upserter {
	return &Upserter{DB: db}
}

// Upsert is idempotent for imported candidates: an existing row with the
// same (source, source_id) pair is never overwritten, even if the feed has
// since changed the title or time. The lookup is advisory; the unique
// index on the pair is what actually closes the check-then-insert race,
// with a constraint hit reported as Skipped rather than an error.
func (u *Upserter) Upsert(ctx context.Context, c models.Candidate) (UpsertResult, error) {
	if c.Source != "" && c.SourceID == "" {
		return Skipped, fmt.Errorf("%w: sourced candidate without source id", apperrors.ErrValidation)
	}

	event := &models.Event{
		Title:     c.Title,
		Date:      c.Date,
		WhenText:  c.WhenText,
		City:      c.City,
		Kids:      c.Kids,
		Status:    models.StatusPending,
		URL:       c.URL,
		Source:    c.Source,
		SourceID:  c.SourceID,
		CreatedAt: time.Now().UTC(),
	}

	if c.Source == "" {
		// Manual path: no dedup key, always a fresh pending row.
		if err := u.DB.InsertEvent(ctx, event); err != nil {
			return Skipped, fmt.Errorf("%w: insert candidate: %v", apperrors.ErrStorage, err)
		}
		return Inserted, nil
	}

	event.Status = models.StatusApproved

	exists, err := u.DB.ExistsBySourceKey(ctx, c.Source, c.SourceID)
	if err != nil {
		return Skipped, fmt.Errorf("%w: dedup lookup: %v", apperrors.ErrStorage, err)
	}
	if exists {
		return Skipped, nil
	}

	inserted, err := u.DB.InsertImportedEvent(ctx, event)
	if err != nil {
		return Skipped, fmt.Errorf("%w: insert candidate: %v", apperrors.ErrStorage, err)
	}
	if !inserted {
		// A concurrent sync run inserted the same key between the lookup
		// and the insert.
		return Skipped, nil
	}
	return Inserted, nil
}
