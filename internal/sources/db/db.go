package db

import (
	"context"

	"github.com/uptrace/bun"

	"cityevents/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) InsertSource(ctx context.Context, source *models.Source) error {
	_, err := d.Bun.NewInsert().Model(source).Exec(ctx)
	return err
}

func (d *DB) DeleteSource(ctx context.Context, id int64) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Source)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ActiveByType returns the sources the sync routine should poll: matching
// type and active at the moment of the query.
func (d *DB) ActiveByType(ctx context.Context, sourceType string) ([]models.Source, error) {
	sources := make([]models.Source, 0)
	err := d.Bun.NewSelect().
		Model(&sources).
		Where("type = ?", sourceType).
		Where("active = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (d *DB) ListSources(ctx context.Context) ([]models.Source, error) {
	sources := make([]models.Source, 0)
	err := d.Bun.NewSelect().
		Model(&sources).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (d *DB) CountSources(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Source)(nil)).
		Count(ctx)
}
