package dto

import "github.com/noah-isme/pmb-api/internal/models"

// CreateReEnrollmentRequest records the follow-up payment of a registration.
type CreateReEnrollmentRequest struct {
	Gender           string      `json:"gender" validate:"omitempty,oneof=L P"`
	ShirtSize        string      `json:"shirtSize" validate:"omitempty,oneof=S M L XL XXL XXXL"`
	Installment1     Amount      `json:"installment1"`
	Installment1Date models.Date `json:"installment1Date"`
	Installment2     Amount      `json:"installment2"`
	Installment2Date models.Date `json:"installment2Date"`
	PaymentMethodID  string      `json:"paymentMethodId" validate:"max=64"`
	Presenters       []string    `json:"presenters" validate:"max=10,dive,required,max=150"`
}

// ReEnrollmentQuery mirrors supported listing filters.
type ReEnrollmentQuery struct {
	WaveID   string
	BranchID string
	Page     int
	PageSize int
}
