package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
	"github.com/temic137/forms-sub004/internal/validator"
)

// RuntimeHandler serves respondents filling in published forms.
type RuntimeHandler struct {
	BaseHandler
	runtimeService services.RuntimeService
	validator      *validator.Validator
}

func NewRuntimeHandler(runtimeService services.RuntimeService, validator *validator.Validator, logger utils.Logger) *RuntimeHandler {
	return &RuntimeHandler{
		BaseHandler:    NewBaseHandler(logger),
		runtimeService: runtimeService,
		validator:      validator,
	}
}

// GetPublicForm returns a published form without its answer key
// @Router /forms/{id}/public [get]
func (h *RuntimeHandler) GetPublicForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	form, err := h.runtimeService.GetPublicForm(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Form retrieved", form)
}

// EvaluateVisibility reports which fields are visible for the given answers
// @Router /forms/{id}/visibility [post]
func (h *RuntimeHandler) EvaluateVisibility(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.AnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.runtimeService.EvaluateVisibility(c.Request.Context(), id, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Visibility evaluated", resp)
}

// ScorePreview grades answers without saving them. Owner only.
// @Router /forms/{id}/score-preview [post]
func (h *RuntimeHandler) ScorePreview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.AnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.runtimeService.ScorePreview(c.Request.Context(), id, req.Answers, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Score calculated", result)
}

// StartSession opens a multi-step session
// @Router /forms/{id}/sessions [post]
func (h *RuntimeHandler) StartSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	respondentID := optionalUserID(c)
	if respondentID == nil && c.Request.ContentLength > 0 {
		var req services.StartSessionRequest
		if !h.bindJSON(c, &req) {
			return
		}
		if err := h.validator.ValidateStruct(&req); err != nil {
			h.handleServiceError(c, validator.ToValidationErrors(err))
			return
		}
		respondentID = req.RespondentID
	}

	session, err := h.runtimeService.StartSession(c.Request.Context(), id, respondentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Session started", session)
}

// GetSession returns the current step of a session
// @Router /forms/{id}/sessions/{session_id} [get]
func (h *RuntimeHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	session, err := h.runtimeService.GetSession(c.Request.Context(), id, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Session retrieved", session)
}

// UpdateAnswers merges answers into a session. Null values clear an answer.
// @Router /forms/{id}/sessions/{session_id}/answers [put]
func (h *RuntimeHandler) UpdateAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}
	var req services.AnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.runtimeService.UpdateAnswers(c.Request.Context(), id, sessionID, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Answers saved", session)
}

// NextStep validates the current step and advances
// @Router /forms/{id}/sessions/{session_id}/next [post]
func (h *RuntimeHandler) NextStep(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}
	var req services.AnswersRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.runtimeService.NextStep(c.Request.Context(), id, sessionID, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if len(resp.Transition.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Step has invalid answers",
			Details: resp,
			Code:    "step_invalid",
		})
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Step changed", resp)
}

// PreviousStep moves back one step when the form allows it
// @Router /forms/{id}/sessions/{session_id}/previous [post]
func (h *RuntimeHandler) PreviousStep(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	resp, err := h.runtimeService.PreviousStep(c.Request.Context(), id, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Step changed", resp)
}

// Submit records a response, scoring it when the form is a quiz
// @Router /forms/{id}/submissions [post]
func (h *RuntimeHandler) Submit(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.SubmitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, validator.ToValidationErrors(err))
		return
	}

	h.LogRequest(c, "Submitting response", "form_id", id, "session_id", req.SessionID)

	result, err := h.runtimeService.Submit(c.Request.Context(), id, &req, optionalUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Response submitted", result)
}
