package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pmb-api/internal/models"
)

// CatalogRepository reads the reference data registration forms select from.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var items []models.Branch
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM branches ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListTracks(ctx context.Context) ([]models.Track, error) {
	var items []models.Track
	if err := r.db.SelectContext(ctx, &items, `SELECT id, branch_id, name FROM tracks ORDER BY branch_id, name`); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListMajors(ctx context.Context) ([]models.Major, error) {
	var items []models.Major
	if err := r.db.SelectContext(ctx, &items, `SELECT id, code, name, branch_id FROM majors ORDER BY branch_id, code`); err != nil {
		return nil, fmt.Errorf("list majors: %w", err)
	}
	return items, nil
}

// ListFees returns standalone and major-bound fee entries; major_id is empty
// for the former.
func (r *CatalogRepository) ListFees(ctx context.Context) ([]models.FeeEntry, error) {
	var items []models.FeeEntry
	const query = `SELECT id, branch_id, track_id, COALESCE(major_id, '') AS major_id, label, amount
        FROM fee_entries ORDER BY branch_id, track_id, label`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list fee entries: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListDiscounts(ctx context.Context) ([]models.DiscountEntry, error) {
	var items []models.DiscountEntry
	const query = `SELECT id, branch_id, track_id, label, amount FROM discount_entries ORDER BY branch_id, track_id, label`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list discount entries: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListPresenters(ctx context.Context) ([]models.Presenter, error) {
	var items []models.Presenter
	if err := r.db.SelectContext(ctx, &items, `SELECT id, full_name, branch_id FROM presenters ORDER BY full_name`); err != nil {
		return nil, fmt.Errorf("list presenters: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var items []models.PaymentMethod
	if err := r.db.SelectContext(ctx, &items, `SELECT id, code FROM payment_methods ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListInfoSources(ctx context.Context) ([]models.InfoSource, error) {
	var items []models.InfoSource
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM info_sources ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list info sources: %w", err)
	}
	return items, nil
}
