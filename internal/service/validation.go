package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

// validationError turns validator output into VALIDATION_ERROR with one
// detail per failing field.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[lowerFirst(fe.Field())] = rule
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	wrapped.Details = details
	return wrapped
}

func invalidField(field, reason string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, reason), map[string]string{field: reason})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// normalizePage applies list defaults.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
