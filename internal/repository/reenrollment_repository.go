package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pmb-api/internal/models"
)

const reEnrollmentRegistrationConstraint = "re_enrollments_registration_id_key"

const reEnrollmentColumns = `id, registration_id, registration_number, wave_id, branch_id, presenters, gender, shirt_size,
        installment_1, installment_1_date, installment_2, installment_2_date, payment_method_id, created_by, created_at`

// ReEnrollmentRepository manages persistence for re-enrollments.
type ReEnrollmentRepository struct {
	db *sqlx.DB
}

// NewReEnrollmentRepository constructs a ReEnrollmentRepository.
func NewReEnrollmentRepository(db *sqlx.DB) *ReEnrollmentRepository {
	return &ReEnrollmentRepository{db: db}
}

// ExistsForRegistration reports whether a registration is re-enrolled.
func (r *ReEnrollmentRepository) ExistsForRegistration(ctx context.Context, registrationID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM re_enrollments WHERE registration_id = $1 LIMIT 1`, registrationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check re-enrollment: %w", err)
	}
	return true, nil
}

// List returns re-enrollments matching the filters, newest first.
func (r *ReEnrollmentRepository) List(ctx context.Context, filter models.ReEnrollmentFilter) ([]models.ReEnrollment, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.WaveID != "" {
		conditions = append(conditions, fmt.Sprintf("wave_id = $%d", len(args)+1))
		args = append(args, filter.WaveID)
	}
	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM re_enrollments %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		reEnrollmentColumns, where, size, (page-1)*size)
	var items []models.ReEnrollment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list re-enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM re_enrollments "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count re-enrollments: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a re-enrollment.
func (r *ReEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.ReEnrollment, error) {
	var item models.ReEnrollment
	if err := r.db.GetContext(ctx, &item, "SELECT "+reEnrollmentColumns+" FROM re_enrollments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a re-enrollment. A second re-enrollment of the same
// registration yields ErrDuplicateReEnrollment.
func (r *ReEnrollmentRepository) Create(ctx context.Context, item *models.ReEnrollment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO re_enrollments (id, registration_id, registration_number, wave_id, branch_id, presenters, gender, shirt_size,
        installment_1, installment_1_date, installment_2, installment_2_date, payment_method_id, created_by, created_at)
        VALUES (:id, :registration_id, :registration_number, NULLIF(:wave_id, ''), :branch_id, :presenters, :gender, :shirt_size,
        :installment_1, :installment_1_date, :installment_2, :installment_2_date, :payment_method_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if isUniqueViolation(err, reEnrollmentRegistrationConstraint) {
			return fmt.Errorf("create re-enrollment for %s: %w", item.RegistrationID, ErrDuplicateReEnrollment)
		}
		return fmt.Errorf("create re-enrollment: %w", err)
	}
	return nil
}

// Delete removes a re-enrollment.
func (r *ReEnrollmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM re_enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete re-enrollment: %w", err)
	}
	return expectAffected(res, "delete re-enrollment")
}
