package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/youthcenters/internal/core/domain"
)

// CenterRepo implements ports.CenterRepository with pgx.
type CenterRepo struct {
	db *DB
}

// NewCenterRepo creates a new CenterRepo.
func NewCenterRepo(db *DB) *CenterRepo {
	return &CenterRepo{db: db}
}

// List returns all centers in dataset order.
func (r *CenterRepo) List(ctx context.Context) ([]domain.Center, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, latitude, longitude
		FROM centers
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	centers := make([]domain.Center, 0)
	for rows.Next() {
		var c domain.Center
		if err := rows.Scan(&c.Name, &c.Latitude, &c.Longitude); err != nil {
			return nil, err
		}
		centers = append(centers, c)
	}
	return centers, rows.Err()
}

// ReplaceAll swaps the whole dataset inside one transaction. Each row keeps
// its slice index in position so List returns file order.
func (r *CenterRepo) ReplaceAll(ctx context.Context, centers []domain.Center) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE centers RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range centers {
		batch.Queue(`
			INSERT INTO centers (name, latitude, longitude, position)
			VALUES ($1, $2, $3, $4)
		`, c.Name, c.Latitude, c.Longitude, i)
	}
	br := tx.SendBatch(ctx, batch)
	for range centers {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

// Count returns the number of stored centers.
func (r *CenterRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM centers`).Scan(&n)
	return n, err
}
