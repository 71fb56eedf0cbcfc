package services

import (
	"errors"
	"fmt"

	apperrors "github.com/temic137/forms-sub004/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")

	// Form specific errors
	ErrFormNotFound     = errors.New("form not found")
	ErrFormNotPublished = errors.New("form is not accepting responses")
	ErrFormNotEditable  = errors.New("form cannot be edited in current status")
	ErrQuizNotEnabled   = errors.New("form is not a quiz")
	ErrFormChanged      = errors.New("form changed while the response was being submitted")

	// Session specific errors
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrSessionSubmitted = errors.New("session already submitted")
	ErrSessionStale     = errors.New("form changed since the session started")
	ErrSessionBusy      = errors.New("session step validation in progress")

	// Submission specific errors
	ErrSubmissionNotFound = errors.New("submission not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFormNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrFormNotPublished) ||
		errors.Is(err, ErrFormNotEditable) ||
		errors.Is(err, ErrQuizNotEnabled) ||
		errors.Is(err, ErrSessionSubmitted) ||
		errors.Is(err, ErrSessionStale) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrFormChanged)
}
