// Package db reads the users table. The table is owned by the user-store
// component (which handles credentials); this service only consumes it for
// the home-page counters.
package db

import (
	"context"

	"github.com/uptrace/bun"

	"cityevents/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CountUsers(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Count(ctx)
}
