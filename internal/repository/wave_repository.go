package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pmb-api/internal/models"
)

// WaveRepository reads enrollment waves.
type WaveRepository struct {
	db *sqlx.DB
}

// NewWaveRepository constructs a WaveRepository.
func NewWaveRepository(db *sqlx.DB) *WaveRepository {
	return &WaveRepository{db: db}
}

// ListWaves returns every wave ordered by start date.
func (r *WaveRepository) ListWaves(ctx context.Context) ([]models.Wave, error) {
	const query = `SELECT id, name, start_date, end_date, re_enrollment_start, re_enrollment_end,
        COALESCE(re_enrollment_note, '') AS re_enrollment_note, created_at
        FROM waves ORDER BY start_date, id`
	var waves []models.Wave
	if err := r.db.SelectContext(ctx, &waves, query); err != nil {
		return nil, fmt.Errorf("list waves: %w", err)
	}
	return waves, nil
}
