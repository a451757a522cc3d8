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

// Constraint names from the registrations schema.
const (
	registrationNumberConstraint = "registrations_wave_id_number_key"
)

const registrationColumns = `r.id, r.number, r.registered_on, r.wave_id, r.applicant_name, r.phone, r.email, r.prior_school, r.gender,
        r.branch_id, r.track_id, r.major_id, r.fee_id, r.base_fee, r.discount_id, r.discount_label, r.discount_amount, r.total_fee,
        r.presenters, r.payment_method_id, r.info_source, r.receipt_no, r.note, r.created_by, r.created_at, r.updated_at`

const registrationJoins = `FROM registrations r
        LEFT JOIN waves w ON w.id = r.wave_id
        LEFT JOIN branches b ON b.id = r.branch_id
        LEFT JOIN tracks t ON t.id = r.track_id
        LEFT JOIN majors m ON m.id = r.major_id`

// RegistrationRepository manages persistence for registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CountByWave returns how many registrations a wave holds.
func (r *RegistrationRepository) CountByWave(ctx context.Context, waveID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registrations WHERE wave_id = $1`, waveID); err != nil {
		return 0, fmt.Errorf("count registrations in wave: %w", err)
	}
	return count, nil
}

// ListNumbersByWave returns every number issued in a wave.
func (r *RegistrationRepository) ListNumbersByWave(ctx context.Context, waveID string) ([]string, error) {
	var numbers []string
	if err := r.db.SelectContext(ctx, &numbers, `SELECT number FROM registrations WHERE wave_id = $1`, waveID); err != nil {
		return nil, fmt.Errorf("list registration numbers: %w", err)
	}
	return numbers, nil
}

// ExistsNumber reports whether number is already issued in a wave.
func (r *RegistrationRepository) ExistsNumber(ctx context.Context, waveID, number string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM registrations WHERE wave_id = $1 AND number = $2 LIMIT 1`, waveID, number)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration number: %w", err)
	}
	return true, nil
}

// List returns registrations matching the provided filters.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.WaveID != "" {
		conditions = append(conditions, fmt.Sprintf("r.wave_id = $%d", len(args)+1))
		args = append(args, filter.WaveID)
	}
	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("r.branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.Month > 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(MONTH FROM r.registered_on) = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM r.registered_on) = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(r.applicant_name) LIKE $%d OR r.number LIKE $%d OR LOWER(r.prior_school) LIKE $%d)", n, n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"number":         "r.number",
		"registered_on":  "r.registered_on",
		"applicant_name": "r.applicant_name",
		"created_at":     "r.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "r.registered_on"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
        w.name AS wave_name, b.name AS branch_name, t.name AS track_name, m.name AS major_name,
        EXISTS (SELECT 1 FROM re_enrollments re WHERE re.registration_id = r.id) AS re_enrolled
        %s %s ORDER BY %s %s, r.number %s LIMIT %d OFFSET %d`, registrationColumns, registrationJoins, where, column, order, order, size, offset)

	var items []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM registrations r %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a registration with display names.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        w.name AS wave_name, b.name AS branch_name, t.name AS track_name, m.name AS major_name,
        EXISTS (SELECT 1 FROM re_enrollments re WHERE re.registration_id = r.id) AS re_enrolled
        %s WHERE r.id = $1`, registrationColumns, registrationJoins)
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a registration. A number already used in the wave yields
// ErrDuplicateNumber.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	const query = `INSERT INTO registrations (id, number, registered_on, wave_id, applicant_name, phone, email, prior_school, gender,
        branch_id, track_id, major_id, fee_id, base_fee, discount_id, discount_label, discount_amount, total_fee,
        presenters, payment_method_id, info_source, receipt_no, note, created_by, created_at, updated_at)
        VALUES (:id, :number, :registered_on, :wave_id, :applicant_name, :phone, :email, :prior_school, :gender,
        :branch_id, :track_id, :major_id, :fee_id, :base_fee, :discount_id, :discount_label, :discount_amount, :total_fee,
        :presenters, :payment_method_id, :info_source, :receipt_no, :note, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		if isUniqueViolation(err, registrationNumberConstraint) {
			return fmt.Errorf("create registration %s: %w", registration.Number, ErrDuplicateNumber)
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Update modifies the editable fields of a registration. Number, date and
// wave are never written.
func (r *RegistrationRepository) Update(ctx context.Context, registration *models.Registration) error {
	registration.UpdatedAt = time.Now().UTC()
	const query = `UPDATE registrations SET applicant_name = :applicant_name, phone = :phone, email = :email, prior_school = :prior_school,
        gender = :gender, branch_id = :branch_id, track_id = :track_id, major_id = :major_id, fee_id = :fee_id, base_fee = :base_fee,
        discount_id = :discount_id, discount_label = :discount_label, discount_amount = :discount_amount, total_fee = :total_fee,
        presenters = :presenters, payment_method_id = :payment_method_id, info_source = :info_source, receipt_no = :receipt_no,
        note = :note, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, registration)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return expectAffected(res, "update registration")
}

// Delete removes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return expectAffected(res, "delete registration")
}

// expectAffected maps a zero row count to sql.ErrNoRows.
func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
