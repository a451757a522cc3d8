package models

import (
	"time"

	"github.com/lib/pq"
)

// ReEnrollment ("daftar ulang") is the follow-up payment record of a
// registration, paid in up to two installments.
type ReEnrollment struct {
	ID                 string         `db:"id" json:"id"`
	RegistrationID     string         `db:"registration_id" json:"registration_id"`
	RegistrationNumber string         `db:"registration_number" json:"registration_number"`
	WaveID             string         `db:"wave_id" json:"wave_id,omitempty"`
	BranchID           string         `db:"branch_id" json:"branch_id"`
	Presenters         pq.StringArray `db:"presenters" json:"presenters"`
	Gender             string         `db:"gender" json:"gender,omitempty"`
	ShirtSize          string         `db:"shirt_size" json:"shirt_size,omitempty"`
	Installment1       int64          `db:"installment_1" json:"installment_1"`
	Installment1Date   Date           `db:"installment_1_date" json:"installment_1_date"`
	Installment2       int64          `db:"installment_2" json:"installment_2"`
	Installment2Date   Date           `db:"installment_2_date" json:"installment_2_date"`
	PaymentMethodID    string         `db:"payment_method_id" json:"payment_method_id,omitempty"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// TotalPaid sums both installments.
func (r ReEnrollment) TotalPaid() int64 {
	return r.Installment1 + r.Installment2
}

// ReEnrollmentFilter provides filters for listing re-enrollments.
type ReEnrollmentFilter struct {
	WaveID   string
	BranchID string
	Page     int
	PageSize int
}
