package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
)

type FormHandler struct {
	BaseHandler
	formService services.FormService
}

func NewFormHandler(formService services.FormService, logger utils.Logger) *FormHandler {
	return &FormHandler{
		BaseHandler: NewBaseHandler(logger),
		formService: formService,
	}
}

// CreateForm creates a draft form
// @Summary Create form
// @Tags forms
// @Accept json
// @Produce json
// @Param form body services.CreateFormRequest true "Form data"
// @Success 201 {object} SuccessResponse{data=services.FormResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /forms [post]
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req services.CreateFormRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Form created", form)
}

// GetForm returns one of the caller's forms
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Form retrieved", form)
}

// ListForms lists the caller's forms
// @Param status query string false "draft, published or closed"
// @Param search query string false "Title search"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Router /forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.FormFilters{
		Search:    c.Query("search"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		formStatus := models.FormStatus(status)
		filters.Status = &formStatus
	}

	forms, err := h.formService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Forms retrieved", forms)
}

// UpdateForm replaces a form's title and definition
// @Router /forms/{id} [put]
func (h *FormHandler) UpdateForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.UpdateFormRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Form updated", form)
}

// PublishForm opens a form for responses
// @Router /forms/{id}/publish [post]
func (h *FormHandler) PublishForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Publishing form", "form_id", id)

	form, err := h.formService.Publish(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Form published", form)
}

// CloseForm stops accepting responses
// @Router /forms/{id}/close [post]
func (h *FormHandler) CloseForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.Close(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Form closed", form)
}

// DeleteForm soft deletes a form
// @Router /forms/{id} [delete]
func (h *FormHandler) DeleteForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting form", "form_id", id)

	if err := h.formService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
