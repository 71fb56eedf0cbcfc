package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

// LogRequest logs an incoming request with the caller's identity
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{
		"remote_addr", c.ClientIP(),
		"user_id", h.extractUserID(c),
	}, additionalFields...)

	h.log(c).Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{"user_id", h.extractUserID(c)}, additionalFields...)
	h.log(c).LogError(err, message, fields...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get(userIDKey); exists {
		return userID
	}
	return nil
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// ===== PARAMETER PARSING =====

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// bindJSON decodes the body into req and answers 400 on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// ===== ERROR MAPPING =====

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    "validation_failed",
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
			Code: "business_rule",
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
			Code: "forbidden",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrFormNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Form not found", Code: "form_not_found"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Session not found or expired", Code: "session_not_found"})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Submission not found", Code: "submission_not_found"})
	case errors.Is(err, services.ErrFormNotPublished):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Form is not accepting responses", Code: "form_not_published"})
	case errors.Is(err, services.ErrFormNotEditable):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Form cannot be edited in current status", Code: "form_not_editable"})
	case errors.Is(err, services.ErrQuizNotEnabled):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Form is not a quiz", Code: "quiz_not_enabled"})
	case errors.Is(err, services.ErrSessionSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Session already submitted", Code: "session_submitted"})
	case errors.Is(err, services.ErrSessionStale):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Form changed since the session started", Code: "session_stale"})
	case errors.Is(err, services.ErrFormChanged):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Form changed, reload and submit again", Code: "form_changed"})
	case errors.Is(err, services.ErrSessionBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Step validation in progress", Code: "session_busy"})
	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: err.Error(), Code: "validation_failed"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Resource conflict"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
