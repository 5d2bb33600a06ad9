package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SourceTypeICS is the only source type the sync routine currently processes.
// Other types may be registered but are skipped.
const SourceTypeICS = "ics"

// Source is one external calendar feed registered for polling.
type Source struct {
	bun.BaseModel `bun:"table:sources"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Type      string    `bun:"type,notnull" json:"type"`
	URL       string    `bun:"url,notnull" json:"url"`
	Name      string    `bun:"name,nullzero" json:"name,omitempty"`
	Active    bool      `bun:"active,notnull" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
