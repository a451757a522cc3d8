package models

import (
	"time"

	"github.com/lib/pq"
)

// Registration is one applicant's new-student registration.
type Registration struct {
	ID              string         `db:"id" json:"id"`
	Number          string         `db:"number" json:"number"`
	RegisteredOn    Date           `db:"registered_on" json:"registered_on"`
	WaveID          string         `db:"wave_id" json:"wave_id"`
	ApplicantName   string         `db:"applicant_name" json:"applicant_name"`
	Phone           string         `db:"phone" json:"phone"`
	Email           string         `db:"email" json:"email"`
	PriorSchool     string         `db:"prior_school" json:"prior_school"`
	Gender          string         `db:"gender" json:"gender,omitempty"`
	BranchID        string         `db:"branch_id" json:"branch_id"`
	TrackID         string         `db:"track_id" json:"track_id"`
	MajorID         string         `db:"major_id" json:"major_id"`
	FeeID           *string        `db:"fee_id" json:"fee_id,omitempty"`
	BaseFee         int64          `db:"base_fee" json:"base_fee"`
	DiscountID      *string        `db:"discount_id" json:"discount_id,omitempty"`
	DiscountLabel   string         `db:"discount_label" json:"discount_label,omitempty"`
	DiscountAmount  int64          `db:"discount_amount" json:"discount_amount"`
	TotalFee        int64          `db:"total_fee" json:"total_fee"`
	Presenters      pq.StringArray `db:"presenters" json:"presenters"`
	PaymentMethodID string         `db:"payment_method_id" json:"payment_method_id,omitempty"`
	InfoSource      string         `db:"info_source" json:"info_source,omitempty"`
	ReceiptNo       string         `db:"receipt_no" json:"receipt_no,omitempty"`
	Note            string         `db:"note" json:"note,omitempty"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// CreditsPresenter reports whether name is among the credited presenters.
func (r *Registration) CreditsPresenter(name string) bool {
	if r == nil || name == "" {
		return false
	}
	for _, p := range r.Presenters {
		if p == name {
			return true
		}
	}
	return false
}

// RegistrationDetail enriches Registration with display names.
type RegistrationDetail struct {
	Registration
	WaveName   string `db:"wave_name" json:"wave_name"`
	BranchName string `db:"branch_name" json:"branch_name"`
	TrackName  string `db:"track_name" json:"track_name"`
	MajorName  string `db:"major_name" json:"major_name"`
	ReEnrolled bool   `db:"re_enrolled" json:"re_enrolled"`
}

// RegistrationFilter provides filters for listing registrations.
type RegistrationFilter struct {
	WaveID    string
	BranchID  string
	Month     int
	Year      int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
