package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"cityevents/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// filterClause is one typed predicate of the feed query. Clauses are ANDed
// onto the base status predicate instead of concatenating SQL per field.
type filterClause struct {
	expr string
	args []any
}

func clausesFor(f models.EventFilter) []filterClause {
	var clauses []filterClause
	if f.City != "" {
		clauses = append(clauses, filterClause{"lower(city) = lower(?)", []any{f.City}})
	}
	if f.Date != "" {
		clauses = append(clauses, filterClause{"date = ?", []any{f.Date}})
	}
	if f.KidsOnly {
		clauses = append(clauses, filterClause{"kids = ?", []any{true}})
	}
	return clauses
}

// InsertEvent writes a new event row. Status is validated here so bare
// strings can never reach the table.
func (d *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	if !event.Status.Valid() {
		return fmt.Errorf("invalid event status %q", event.Status)
	}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// InsertImportedEvent writes an imported event row, relying on the unique
// (source, source_id) index to absorb duplicates. A constraint hit is not
// an error: the insert is ignored and inserted=false is returned, which
// keeps re-sync idempotent even when two sync runs race.
func (d *DB) InsertImportedEvent(ctx context.Context, event *models.Event) (bool, error) {
	if !event.Status.Valid() {
		return false, fmt.Errorf("invalid event status %q", event.Status)
	}
	res, err := d.Bun.NewInsert().
		Model(event).
		On("CONFLICT (source, source_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ExistsBySourceKey reports whether an imported row with the given dedup
// key is already present.
func (d *DB) ExistsBySourceKey(ctx context.Context, source, sourceID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("source = ?", source).
		Where("source_id = ?", sourceID).
		Exists(ctx)
}

// ApprovePending flips a pending row to approved. The status guard in the
// WHERE clause makes the transition at-most-once under concurrent callers;
// the returned row count tells the caller whether it won.
func (d *DB) ApprovePending(ctx context.Context, id int64) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", models.StatusApproved).
		Where("id = ?", id).
		Where("status = ?", models.StatusPending).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteEvent removes a row permanently (rejection has no stored state).
func (d *DB) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListApproved returns the public feed: approved rows matching the filter,
// ordered by date ascending then id descending so more recently created
// same-day events surface first.
func (d *DB) ListApproved(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.StatusApproved)
	for _, c := range clausesFor(f) {
		q = q.Where(c.expr, c.args...)
	}
	err := q.Order("date ASC", "id DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListApprovedBetween returns approved rows with from <= date <= to, for
// calendar-month aggregation. ISO dates compare correctly as text.
func (d *DB) ListApprovedBetween(ctx context.Context, from, to string, f models.EventFilter) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.StatusApproved).
		Where("date >= ?", from).
		Where("date <= ?", to)
	for _, c := range clausesFor(f) {
		q = q.Where(c.expr, c.args...)
	}
	err := q.Order("date ASC", "id DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListByStatus returns all rows in the given status, same ordering as the
// feed. Used for the moderation queue.
func (d *DB) ListByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid event status %q", status)
	}
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", status).
		Order("date ASC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DistinctCities returns the sorted set of distinct non-empty city values
// among approved events, for building filter pickers.
func (d *DB) DistinctCities(ctx context.Context) ([]string, error) {
	cities := make([]string, 0)
	err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("DISTINCT city").
		Where("status = ?", models.StatusApproved).
		Where("city <> ''").
		OrderExpr("city ASC").
		Scan(ctx, &cities)
	if err != nil {
		return nil, err
	}
	return cities, nil
}

func (d *DB) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("status = ?", status).
		Count(ctx)
}
