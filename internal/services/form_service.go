package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/temic137/forms-sub004/internal/cache"
	"github.com/temic137/forms-sub004/internal/events"
	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type formService struct {
	repo          repositories.Repository
	forms         cache.FormCache
	sessions      cache.SessionStore
	publisher     events.EventPublisher
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	validator     *validator.Validator
}

func NewFormService(
	repo repositories.Repository,
	forms cache.FormCache,
	sessions cache.SessionStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) FormService {
	return &formService{
		repo:          repo,
		forms:         forms,
		sessions:      sessions,
		publisher:     publisher,
		logger:        logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{Service: "form-service", Component: "forms"}),
		validator:     validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *formService) Create(ctx context.Context, req *CreateFormRequest, userID string) (resp *FormResponse, err error) {
	op := s.serviceLogger.WithOperation(ctx, "create_form", userID)
	defer func() { op.LogResult(formIDOf(resp), "form", err) }()

	if err = s.validate(req); err != nil {
		return nil, err
	}

	form := &models.Form{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.FormStatusDraft,
		CreatedBy:   userID,
		Version:     1,
	}
	if err = form.SetDefinition(req.Definition); err != nil {
		return nil, err
	}

	if err = s.repo.Form().Create(ctx, nil, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	return buildFormResponse(form, req.Definition, 0), nil
}

func (s *formService) Get(ctx context.Context, id uint, userID string) (*FormResponse, error) {
	form, err := loadOwnedForm(ctx, s.repo, id, userID, "read")
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Submission().CountByForm(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	return s.formResponse(form, count)
}

func (s *formService) Update(ctx context.Context, id uint, req *UpdateFormRequest, userID string) (resp *FormResponse, err error) {
	op := s.serviceLogger.WithOperation(ctx, "update_form", userID)
	defer func() { op.LogResult(id, "form", err) }()

	if err = s.validate(req); err != nil {
		return nil, err
	}

	form, err := loadOwnedForm(ctx, s.repo, id, userID, "update")
	if err != nil {
		return nil, err
	}
	if form.Status == models.FormStatusClosed {
		return nil, ErrFormNotEditable
	}

	form.Title = req.Title
	form.Description = req.Description
	form.Version++
	if err = form.SetDefinition(req.Definition); err != nil {
		return nil, err
	}

	if err = s.repo.Form().Update(ctx, nil, form); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	// Open sessions were built against the previous definition
	s.invalidate(ctx, id, true)

	count, err := s.repo.Submission().CountByForm(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	return buildFormResponse(form, req.Definition, count), nil
}

func (s *formService) Delete(ctx context.Context, id uint, userID string) (err error) {
	op := s.serviceLogger.WithOperation(ctx, "delete_form", userID)
	defer func() { op.LogResult(id, "form", err) }()

	if _, err = loadOwnedForm(ctx, s.repo, id, userID, "delete"); err != nil {
		return err
	}

	if err = s.repo.Form().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFormNotFound
		}
		return fmt.Errorf("failed to delete form: %w", err)
	}

	s.invalidate(ctx, id, true)
	return nil
}

func (s *formService) List(ctx context.Context, filters repositories.FormFilters, userID string) (*FormListResponse, error) {
	filters.CreatedBy = &userID
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	forms, total, err := s.repo.Form().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	out := make([]*FormResponse, 0, len(forms))
	for _, form := range forms {
		resp, err := s.formResponse(form, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}

	return &FormListResponse{
		Forms:  out,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// ===== STATUS MANAGEMENT =====

func (s *formService) Publish(ctx context.Context, id uint, userID string) (resp *FormResponse, err error) {
	op := s.serviceLogger.WithOperation(ctx, "publish_form", userID)
	defer func() { op.LogResult(id, "form", err) }()

	form, err := loadOwnedForm(ctx, s.repo, id, userID, "publish")
	if err != nil {
		return nil, err
	}
	if form.IsPublished() {
		return s.formResponse(form, 0)
	}

	now := time.Now().UTC()
	form.Status = models.FormStatusPublished
	form.PublishedAt = &now

	if err = s.repo.Form().Update(ctx, nil, form); err != nil {
		return nil, fmt.Errorf("failed to publish form: %w", err)
	}

	s.invalidate(ctx, id, false)

	event := events.NewFormPublishedEvent(form.ID, form.Title, form.Version, userID, now)
	if pubErr := s.publisher.PublishEvent(ctx, event); pubErr != nil {
		s.logger.Warn("Failed to publish form event", "form_id", form.ID, "error", pubErr)
	}

	return s.formResponse(form, 0)
}

func (s *formService) Close(ctx context.Context, id uint, userID string) (resp *FormResponse, err error) {
	op := s.serviceLogger.WithOperation(ctx, "close_form", userID)
	defer func() { op.LogResult(id, "form", err) }()

	form, err := loadOwnedForm(ctx, s.repo, id, userID, "close")
	if err != nil {
		return nil, err
	}
	if !form.IsPublished() {
		return nil, NewBusinessRuleError("form_status", "only published forms can be closed",
			map[string]interface{}{"status": form.Status})
	}

	form.Status = models.FormStatusClosed
	if err = s.repo.Form().Update(ctx, nil, form); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	s.invalidate(ctx, id, true)
	return s.formResponse(form, 0)
}

// ===== HELPERS =====

func (s *formService) validate(req interface{}) error {
	return validateRequest(s.validator, req)
}

// validateRequest runs struct and definition validation, normalising failures
// to ValidationErrors.
func validateRequest(v *validator.Validator, req interface{}) error {
	err := v.Validate(req)
	if err == nil {
		return nil
	}
	var defErrs ValidationErrors
	if errors.As(err, &defErrs) {
		return defErrs
	}
	if errs := validator.ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

// invalidate drops the cached definition and, when dropSessions is set, every
// open respondent session of the form. Cache failures are logged only.
func (s *formService) invalidate(ctx context.Context, formID uint, dropSessions bool) {
	if err := s.forms.InvalidateForm(ctx, formID); err != nil {
		s.logger.Warn("Failed to invalidate form cache", "form_id", formID, "error", err)
	}
	if !dropSessions {
		return
	}
	if err := s.sessions.DeleteForForm(ctx, formID); err != nil {
		s.logger.Warn("Failed to drop form sessions", "form_id", formID, "error", err)
	}
}

func (s *formService) formResponse(form *models.Form, submissionCount int64) (*FormResponse, error) {
	def, err := form.Definition()
	if err != nil {
		return nil, fmt.Errorf("form %d: %w", form.ID, err)
	}
	return buildFormResponse(form, def, submissionCount), nil
}

func buildFormResponse(form *models.Form, def models.FormDefinition, submissionCount int64) *FormResponse {
	return &FormResponse{
		ID:              form.ID,
		Title:           form.Title,
		Description:     form.Description,
		Status:          form.Status,
		CreatedBy:       form.CreatedBy,
		Version:         form.Version,
		PublishedAt:     form.PublishedAt,
		Definition:      def,
		SubmissionCount: submissionCount,
		CreatedAt:       form.CreatedAt,
		UpdatedAt:       form.UpdatedAt,
	}
}

// loadOwnedForm fetches a form and checks that userID authored it.
func loadOwnedForm(ctx context.Context, repo repositories.Repository, id uint, userID, action string) (*models.Form, error) {
	form, err := repo.Form().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "form", action, "not the form owner")
	}
	return form, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func formIDOf(resp *FormResponse) uint {
	if resp == nil {
		return 0
	}
	return resp.ID
}
