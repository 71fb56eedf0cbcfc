package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SubmissionHandler exposes collected responses to form owners.
type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// ListSubmissions pages through a form's responses
// @Param passed query bool false "Filter by pass/fail"
// @Param respondent_id query string false "Filter by respondent"
// @Param date_from query string false "RFC3339 lower bound"
// @Param date_to query string false "RFC3339 upper bound"
// @Router /forms/{id}/submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	filters, err := h.parseSubmissionFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.submissionService.List(c.Request.Context(), id, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Submissions retrieved", resp)
}

// GetSubmission returns one response
// @Router /forms/{id}/submissions/{submission_id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	submissionID := h.parseIDParam(c, "submission_id")
	if submissionID == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resp, err := h.submissionService.Get(c.Request.Context(), id, submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Submission retrieved", resp)
}

// GetStats summarises a form's responses
// @Router /forms/{id}/stats [get]
func (h *SubmissionHandler) GetStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.submissionService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Statistics retrieved", stats)
}

// ExportSubmissions downloads every response as an XLSX workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /forms/{id}/export [get]
func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting submissions", "form_id", id)

	data, err := h.submissionService.ExportSubmissions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("form-%d-submissions-%s.xlsx", id, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *SubmissionHandler) parseSubmissionFilters(c *gin.Context) (repositories.SubmissionFilters, error) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.SubmissionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if respondent := c.Query("respondent_id"); respondent != "" {
		filters.RespondentID = &respondent
	}
	if passedStr := c.Query("passed"); passedStr != "" {
		passed, err := strconv.ParseBool(passedStr)
		if err != nil {
			return filters, fmt.Errorf("passed: %w", err)
		}
		filters.Passed = &passed
	}
	for param, dst := range map[string]**time.Time{"date_from": &filters.DateFrom, "date_to": &filters.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, fmt.Errorf("%s: %w", param, err)
		}
		*dst = &t
	}

	return filters, nil
}
