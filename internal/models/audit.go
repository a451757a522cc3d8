package models

import (
	"context"
	"time"
)

// Audit actions recorded for registration mutations.
const (
	AuditActionRegistrationCreate = "REGISTRATION_CREATE"
	AuditActionRegistrationUpdate = "REGISTRATION_UPDATE"
	AuditActionRegistrationDelete = "REGISTRATION_DELETE"
	AuditActionReEnrollCreate     = "RE_ENROLLMENT_CREATE"
	AuditActionReEnrollDelete     = "RE_ENROLLMENT_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type requestOriginKey struct{}

// RequestOrigin identifies where a mutating request came from.
type RequestOrigin struct {
	IPAddress string
	UserAgent string
}

// WithRequestOrigin stores origin on ctx for audit entries written later in
// the request.
func WithRequestOrigin(ctx context.Context, origin RequestOrigin) context.Context {
	return context.WithValue(ctx, requestOriginKey{}, origin)
}

// RequestOriginFrom returns the origin stored by WithRequestOrigin.
func RequestOriginFrom(ctx context.Context) (RequestOrigin, bool) {
	origin, ok := ctx.Value(requestOriginKey{}).(RequestOrigin)
	return origin, ok
}
