package validator

import (
	"github.com/temic137/forms-sub004/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}
