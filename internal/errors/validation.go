package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one rejected field, either from struct tag
// validation of a request or from answer validation of a form step.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Add appends an error for field.
func (ve *ValidationErrors) Add(field, message, rule string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message, Rule: rule})
}

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// ForField returns the errors reported for one field.
func (ve ValidationErrors) ForField(field string) ValidationErrors {
	var out ValidationErrors
	for _, e := range ve {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// Fields lists the distinct field paths that failed, in first-seen order.
func (ve ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(ve))
	var out []string
	for _, e := range ve {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	return out
}

func (pe *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}

// ToValidationErrors converts validator.ValidationErrors, possibly wrapped,
// into ValidationErrors keyed by the namespaced JSON field path.
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	var validatorErrs validator.ValidationErrors
	if !stderrors.As(err, &validatorErrs) {
		return result
	}
	for _, fe := range validatorErrs {
		result = append(result, ValidationError{
			Field:   fieldPath(fe),
			Message: getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

// fieldPath drops the root struct name from the namespace, so
// "CreateFormRequest.definition.fields[0].type" becomes "definition.fields[0].type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "numeric":
		return "must be a number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	// Form definition validators
	case "field_type":
		return "must be a valid field type (text, textarea, email, phone, url, number, select, radio, checkbox, multiselect, date, time, rating, scale, file, display)"
	case "rule_operator":
		return "must be a valid operator (equals, notEquals, contains, greaterThan, lessThan, isEmpty, isNotEmpty)"
	case "rule_action":
		return "must be show or hide"
	case "logic_operator":
		return "must be AND or OR"
	case "match_type":
		return "must be exact or contains"
	case "form_status":
		return "must be a valid form status (draft, published, closed)"
	case "answer_option":
		return "must be one of the available options"

	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
