package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateNumber is returned when a registration number is already
	// used within its wave.
	ErrDuplicateNumber = errors.New("registration number already exists in wave")
	// ErrDuplicateReEnrollment is returned when a registration is re-enrolled twice.
	ErrDuplicateReEnrollment = errors.New("registration already re-enrolled")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
