package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EventStatus is the closed set of moderation states an event can be in.
// Rejection deletes the row, so there is no stored "rejected" value.
type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
)

// Valid reports whether s is a recognized status value. The store boundary
// rejects anything else.
func (s EventStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved
}

// Event is one occurrence of a local happening. Date is an ISO calendar date
// (YYYY-MM-DD); WhenText is the free-form display time. Source and SourceID
// are empty for manual submissions and map to NULL columns, so the unique
// (source, source_id) index only binds imported rows.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID        int64       `bun:"id,pk,autoincrement" json:"id"`
	Title     string      `bun:"title,notnull" json:"title"`
	Date      string      `bun:"date,notnull" json:"date"`
	WhenText  string      `bun:"when_text,notnull" json:"when_text"`
	City      string      `bun:"city,notnull" json:"city"`
	Kids      bool        `bun:"kids" json:"kids"`
	Status    EventStatus `bun:"status,notnull" json:"status"`
	URL       string      `bun:"url,nullzero" json:"url,omitempty"`
	Source    string      `bun:"source,nullzero,unique:ux_events_source" json:"source,omitempty"`
	SourceID  string      `bun:"source_id,nullzero,unique:ux_events_source" json:"source_id,omitempty"`
	CreatedAt time.Time   `bun:"created_at,notnull" json:"created_at"`
}

// Imported reports whether the event came from an external feed.
func (e *Event) Imported() bool {
	return e.Source != ""
}
