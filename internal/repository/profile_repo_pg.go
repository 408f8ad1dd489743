package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository interface {
	Ensure(ctx context.Context, userID string) error
}

type PGProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) ProfileRepository {
	return &PGProfileRepository{db: db}
}

// Ensure creates a minimal profile row if none exists. Offers reference
// profiles by foreign key, so this runs before any offer insert.
func (r *PGProfileRepository) Ensure(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}

var _ ProfileRepository = (*PGProfileRepository)(nil)
