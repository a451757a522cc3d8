package dto

import "github.com/noah-isme/pmb-api/internal/models"

// RegistrationOptionsQuery selects the scope used to filter catalogs.
type RegistrationOptionsQuery struct {
	BranchID string
	TrackID  string
}

// QuoteRequest asks for a fee breakdown. FeeID takes precedence over BaseFee.
type QuoteRequest struct {
	BranchID       string `json:"branchId"`
	TrackID        string `json:"trackId"`
	MajorID        string `json:"majorId"`
	FeeID          string `json:"feeId"`
	BaseFee        Amount `json:"baseFee"`
	DiscountID     string `json:"discountId"`
	DiscountAmount Amount `json:"discountAmount"`
}

// RegistrationFields are the editable fields shared by create and update.
type RegistrationFields struct {
	ApplicantName   string   `json:"applicantName" validate:"required,max=150"`
	Phone           string   `json:"phone" validate:"required,max=30"`
	Email           string   `json:"email" validate:"omitempty,email,max=150"`
	PriorSchool     string   `json:"priorSchool" validate:"max=150"`
	Gender          string   `json:"gender" validate:"omitempty,oneof=L P"`
	BranchID        string   `json:"branchId" validate:"max=64"`
	TrackID         string   `json:"trackId" validate:"required,max=64"`
	MajorID         string   `json:"majorId" validate:"required,max=64"`
	FeeID           string   `json:"feeId" validate:"max=64"`
	DiscountID      string   `json:"discountId" validate:"max=64"`
	DiscountAmount  Amount   `json:"discountAmount"`
	Presenters      []string `json:"presenters" validate:"max=10,dive,required,max=150"`
	PaymentMethodID string   `json:"paymentMethodId" validate:"max=64"`
	InfoSource      string   `json:"infoSource" validate:"max=150"`
	ReceiptNo       string   `json:"receiptNo" validate:"max=64"`
	Note            string   `json:"note" validate:"max=1000"`
}

// CreateRegistrationRequest is the payload for a new registration. A zero
// RegisteredOn means today.
type CreateRegistrationRequest struct {
	RegisteredOn models.Date `json:"registeredOn"`
	RegistrationFields
}

// UpdateRegistrationRequest edits a registration in place. The number, date
// and wave cannot be changed.
type UpdateRegistrationRequest struct {
	RegistrationFields
}

// RegistrationQuery mirrors supported listing filters.
type RegistrationQuery struct {
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
