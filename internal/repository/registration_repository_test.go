package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pmb-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

var registrationDetailColumns = []string{
	"id", "number", "registered_on", "wave_id", "applicant_name", "phone", "email", "prior_school", "gender",
	"branch_id", "track_id", "major_id", "fee_id", "base_fee", "discount_id", "discount_label", "discount_amount", "total_fee",
	"presenters", "payment_method_id", "info_source", "receipt_no", "note", "created_by", "created_at", "updated_at",
	"wave_name", "branch_name", "track_name", "major_name", "re_enrolled",
}

func registrationRow(rows *sqlmock.Rows, id, number string) *sqlmock.Rows {
	now := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	return rows.AddRow(id, number, now, "w1", "Ani Lestari", "0812", "", "SMP 1", "P",
		"A", "reg-a", "tkj-a", "fee-tkj-a", int64(1500000), nil, "", int64(0), int64(1500000),
		"{Sari,Budi}", "", "", "", "", "u1", now, now,
		"Gelombang 1", "Cabang A", "Regular", "Teknik Komputer", false)
}

func TestRegistrationRepositoryCountByWave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM registrations WHERE wave_id = $1`)).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByWave(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryNumbers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT number FROM registrations WHERE wave_id = $1`)).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow("20250115-001").AddRow("20250115-002"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM registrations WHERE wave_id = $1 AND number = $2 LIMIT 1`)).
		WithArgs("w1", "20250115-002").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM registrations WHERE wave_id = $1 AND number = $2 LIMIT 1`)).
		WithArgs("w1", "20250115-003").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	numbers, err := repo.ListNumbersByWave(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"20250115-001", "20250115-002"}, numbers)

	exists, err := repo.ExistsNumber(context.Background(), "w1", "20250115-002")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsNumber(context.Background(), "w1", "20250115-003")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := registrationRow(sqlmock.NewRows(registrationDetailColumns), "r1", "20250115-001")
	mock.ExpectQuery(`SELECT .* FROM registrations r .*WHERE 1=1 AND r.branch_id = \$1 AND EXTRACT\(MONTH FROM r.registered_on\) = \$2 AND \(LOWER\(r.applicant_name\) LIKE \$3 .*ORDER BY r.number ASC, r.number ASC LIMIT 10 OFFSET 10`).
		WithArgs("A", 1, "%ani%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM registrations r WHERE 1=1 AND r.branch_id = $1`)).
		WithArgs("A", 1, "%ani%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.RegistrationFilter{
		BranchID: "A", Month: 1, Search: "Ani", Page: 2, PageSize: 10, SortBy: "number", SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, "20250115-001", items[0].Number)
	assert.Equal(t, models.MustParseDate("2025-01-15"), items[0].RegisteredOn)
	assert.Equal(t, []string{"Sari", "Budi"}, []string(items[0].Presenters))
	require.NotNil(t, items[0].FeeID)
	assert.Nil(t, items[0].DiscountID)
	assert.Equal(t, "Teknik Komputer", items[0].MajorName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListIgnoresUnknownSort(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(`ORDER BY r.registered_on DESC, r.number DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows(registrationDetailColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM registrations r WHERE 1=1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.RegistrationFilter{SortBy: "phone; DROP TABLE registrations", SortOrder: "sideways"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(`WHERE r.id = \$1`).
		WithArgs("r1").
		WillReturnRows(registrationRow(sqlmock.NewRows(registrationDetailColumns), "r1", "20250115-001"))
	mock.ExpectQuery(`WHERE r.id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(registrationDetailColumns))

	detail, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Cabang A", detail.BranchName)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registrations`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reg := &models.Registration{
		Number:       "20250115-003",
		RegisteredOn: models.MustParseDate("2025-01-15"),
		WaveID:       "w1",
		BranchID:     "A",
		Presenters:   pq.StringArray{"Sari"},
	}
	require.NoError(t, repo.Create(context.Background(), reg))
	assert.NotEmpty(t, reg.ID)
	assert.False(t, reg.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateDuplicateNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registrations`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "registrations_wave_id_number_key"})
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registrations`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "registrations_pkey"})

	err := repo.Create(context.Background(), &models.Registration{Number: "20250115-003", WaveID: "w1"})
	assert.True(t, errors.Is(err, ErrDuplicateNumber))

	err = repo.Create(context.Background(), &models.Registration{Number: "20250115-003", WaveID: "w1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateNumber))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(`UPDATE registrations SET applicant_name = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM registrations WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM registrations WHERE id = $1`)).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Registration{ID: "r1"}))
	assert.True(t, errors.Is(repo.Delete(context.Background(), "missing"), sql.ErrNoRows))
	require.NoError(t, repo.Delete(context.Background(), "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
