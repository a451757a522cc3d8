package models

// UserRole represents the staff roles recognised by the API.
type UserRole string

const (
	// RoleLeadership ("pimpinan") may act on every branch.
	RoleLeadership UserRole = "pimpinan"
	// RolePresenter is a field agent pinned to their own branch.
	RolePresenter UserRole = "presenter"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleLeadership || r == RolePresenter
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
