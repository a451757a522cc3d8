package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload issued by the auth service.
// BranchID is the caller's affiliated branch; PresenterName is the display
// name credited on registrations when the caller is a field agent.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	BranchID      string   `json:"branch_id,omitempty"`
	PresenterName string   `json:"presenter_name,omitempty"`
	jwt.RegisteredClaims
}

// IsPresenter reports whether the caller is a field agent.
func (c *JWTClaims) IsPresenter() bool {
	return c != nil && c.Role == RolePresenter
}

// CreditName is the name a field agent is credited under.
func (c *JWTClaims) CreditName() string {
	if c == nil {
		return ""
	}
	if c.PresenterName != "" {
		return c.PresenterName
	}
	return c.FullName
}
