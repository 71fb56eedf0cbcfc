package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/cache"
	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/events"
	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/validator"
)

type runtimeService struct {
	repo          repositories.Repository
	forms         cache.FormCache
	sessions      cache.SessionStore
	publisher     events.EventPublisher
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	validator     *validator.Validator
}

func NewRuntimeService(
	repo repositories.Repository,
	forms cache.FormCache,
	sessions cache.SessionStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) RuntimeService {
	return &runtimeService{
		repo:          repo,
		forms:         forms,
		sessions:      sessions,
		publisher:     publisher,
		logger:        logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{Service: "form-service", Component: "runtime"}),
		validator:     validator,
	}
}

// ===== STATELESS EVALUATION =====

func (s *runtimeService) GetPublicForm(ctx context.Context, formID uint) (*PublicFormResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	for i := range def.Fields {
		if qc := def.Fields[i].QuizConfig; qc != nil {
			def.Fields[i].QuizConfig = &models.QuizConfig{Points: qc.Points}
		}
	}

	return &PublicFormResponse{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		Version:     form.Version,
		Definition:  def,
	}, nil
}

func (s *runtimeService) EvaluateVisibility(ctx context.Context, formID uint, answers engine.Answers) (*VisibilityResponse, error) {
	_, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	return &VisibilityResponse{
		VisibleFieldIDs: engine.VisibleFieldIDs(def.Fields, answers),
		Visibility:      engine.VisibilityMap(def.Fields, answers),
	}, nil
}

func (s *runtimeService) ScorePreview(ctx context.Context, formID uint, answers engine.Answers, userID string) (*engine.ScoreResult, error) {
	form, err := loadOwnedForm(ctx, s.repo, formID, userID, "preview")
	if err != nil {
		return nil, err
	}
	def, err := form.Definition()
	if err != nil {
		return nil, fmt.Errorf("form %d: %w", formID, err)
	}
	if !def.Quiz.Enabled {
		return nil, ErrQuizNotEnabled
	}

	result := engine.Score(def.Fields, answers, def.Quiz.PassingScore)
	return &result, nil
}

// ===== SESSIONS =====

func (s *runtimeService) StartSession(ctx context.Context, formID uint, respondentID *string) (*SessionResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &cache.FormSession{
		ID:           uuid.NewString(),
		FormID:       form.ID,
		FormVersion:  form.Version,
		Answers:      make(map[string]models.Value),
		RespondentID: respondentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Session started", "form_id", form.ID, "session_id", session.ID)
	return s.sessionView(s.navigator(def, session.ID), def, session)
}

func (s *runtimeService) GetSession(ctx context.Context, formID uint, sessionID string) (*SessionResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, form, sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionView(s.navigator(def, session.ID), def, session)
}

func (s *runtimeService) UpdateAnswers(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*SessionResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, form, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State.Submitted {
		return nil, ErrSessionSubmitted
	}

	mergeAnswers(def, session.Answers, answers)
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return s.sessionView(s.navigator(def, session.ID), def, session)
}

func (s *runtimeService) NextStep(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*StepTransitionResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, form, sessionID)
	if err != nil {
		return nil, err
	}

	mergeAnswers(def, session.Answers, answers)
	nav := s.navigator(def, session.ID)

	transition, err := nav.Next(ctx, &session.State, session.Answers)
	if err != nil {
		return nil, mapNavigationError(err)
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	view, err := s.sessionView(nav, def, session)
	if err != nil {
		return nil, err
	}
	return &StepTransitionResponse{Transition: transition, Session: view}, nil
}

func (s *runtimeService) PreviousStep(ctx context.Context, formID uint, sessionID string) (*StepTransitionResponse, error) {
	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, form, sessionID)
	if err != nil {
		return nil, err
	}

	nav := s.navigator(def, session.ID)
	transition, err := nav.Previous(&session.State)
	if err != nil {
		return nil, mapNavigationError(err)
	}
	if transition.Moved {
		if err := s.saveSession(ctx, session); err != nil {
			return nil, err
		}
	}

	view, err := s.sessionView(nav, def, session)
	if err != nil {
		return nil, err
	}
	return &StepTransitionResponse{Transition: transition, Session: view}, nil
}

// ===== SUBMISSION =====

func (s *runtimeService) Submit(ctx context.Context, formID uint, req *SubmitRequest, respondentID *string) (resp *SubmissionResultResponse, err error) {
	op := s.serviceLogger.WithOperation(ctx, "submit_form", respondentLabel(respondentID))
	defer func() { op.LogResult(formID, "submission", err) }()

	form, def, err := s.loadPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	answers := make(engine.Answers)
	var session *cache.FormSession
	if req.SessionID != "" {
		session, err = s.loadSession(ctx, form, req.SessionID)
		if err != nil {
			return nil, err
		}
		answers = session.Answers
		if respondentID == nil {
			respondentID = session.RespondentID
		}
	}
	mergeAnswers(def, answers, req.Answers)

	if session != nil {
		transition, navErr := s.navigator(def, session.ID).Submit(ctx, &session.State, answers)
		if navErr != nil {
			return nil, mapNavigationError(navErr)
		}
		if len(transition.Errors) > 0 {
			return nil, transition.Errors
		}
	}

	// Every visible field is checked again regardless of which steps were seen
	visible := engine.VisibleFieldIDs(def.Fields, answers)
	if errs := s.validator.Answers(def.Fields).ValidateFields(visible, answers); len(errs) > 0 {
		return nil, errs
	}

	submission := &models.Submission{
		FormID:       form.ID,
		FormVersion:  form.Version,
		RespondentID: respondentID,
		SubmittedAt:  time.Now().UTC(),
	}
	if err = submission.SetAnswers(answers); err != nil {
		return nil, err
	}

	var score *engine.ScoreResult
	if def.Quiz.Enabled {
		result := engine.Score(def.Fields, answers, def.Quiz.PassingScore)
		score = &result
		if err = applyScore(submission, result); err != nil {
			return nil, err
		}
	}

	if err = s.persistSubmission(ctx, form, submission); err != nil {
		return nil, err
	}

	s.publishSubmissionEvents(ctx, submission, len(answers), score)
	if session != nil {
		s.closeSession(ctx, session)
	}

	return buildSubmissionResult(submission, def.Quiz, score), nil
}

// ===== HELPERS =====

// persistSubmission re-reads the form inside the transaction so a response is
// never stored against a form that was closed or edited after it was loaded.
func (s *runtimeService) persistSubmission(ctx context.Context, form *models.Form, submission *models.Submission) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.Form().GetByID(ctx, tx, form.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrFormNotFound
			}
			return fmt.Errorf("failed to reload form: %w", err)
		}
		if !current.IsPublished() {
			return ErrFormNotPublished
		}
		if current.Version != form.Version {
			return ErrFormChanged
		}
		if err := s.repo.Submission().Create(ctx, tx, submission); err != nil {
			return fmt.Errorf("failed to save submission: %w", err)
		}
		return nil
	})

	if errors.Is(err, ErrFormNotPublished) || errors.Is(err, ErrFormChanged) || errors.Is(err, ErrFormNotFound) {
		if cacheErr := s.forms.InvalidateForm(ctx, form.ID); cacheErr != nil {
			s.logger.Warn("Failed to drop stale form from cache", "form_id", form.ID, "error", cacheErr)
		}
	}
	return err
}

// loadPublishedForm reads the form through the cache. Only published forms
// are cached, and cache failures fall back to the database.
func (s *runtimeService) loadPublishedForm(ctx context.Context, formID uint) (*models.Form, models.FormDefinition, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		s.logger.Warn("Form cache read failed", "form_id", formID, "error", err)
		form = nil
	}

	if form == nil {
		form, err = s.repo.Form().GetByID(ctx, nil, formID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, models.FormDefinition{}, ErrFormNotFound
			}
			return nil, models.FormDefinition{}, fmt.Errorf("failed to get form: %w", err)
		}
		if form.IsPublished() {
			if err := s.forms.SetForm(ctx, form); err != nil {
				s.logger.Warn("Form cache write failed", "form_id", formID, "error", err)
			}
		}
	}

	if !form.IsPublished() {
		return nil, models.FormDefinition{}, ErrFormNotPublished
	}

	def, err := form.Definition()
	if err != nil {
		return nil, models.FormDefinition{}, fmt.Errorf("form %d: %w", formID, err)
	}
	return form, def, nil
}

func (s *runtimeService) loadSession(ctx context.Context, form *models.Form, sessionID string) (*cache.FormSession, error) {
	session, err := s.sessions.Get(ctx, form.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.FormVersion != form.Version {
		return nil, ErrSessionStale
	}
	return session, nil
}

func (s *runtimeService) saveSession(ctx context.Context, session *cache.FormSession) error {
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// closeSession removes a submitted session. If removal fails the session is
// kept but marked submitted so it cannot be submitted twice.
func (s *runtimeService) closeSession(ctx context.Context, session *cache.FormSession) {
	err := s.sessions.Delete(ctx, session.FormID, session.ID)
	if err == nil {
		return
	}
	s.logger.Warn("Failed to delete submitted session", "session_id", session.ID, "error", err)
	if err := s.saveSession(ctx, session); err != nil {
		s.logger.Error("Failed to mark session submitted", "session_id", session.ID, "error", err)
	}
}

func (s *runtimeService) navigator(def models.FormDefinition, sessionID string) *engine.Navigator {
	return engine.NewNavigator(def.Fields, def.MultiStep,
		engine.WithValidator(s.validator.Answers(def.Fields)),
		engine.WithStepChangeHook(func(from, to int) {
			s.logger.Debug("Session step changed", "session_id", sessionID, "from", from, "to", to)
		}),
	)
}

func (s *runtimeService) sessionView(nav *engine.Navigator, def models.FormDefinition, session *cache.FormSession) (*SessionResponse, error) {
	answers := engine.Answers(session.Answers)
	step, err := nav.Current(session.State, answers)
	if err != nil {
		return nil, mapNavigationError(err)
	}

	return &SessionResponse{
		SessionID:   session.ID,
		FormID:      session.FormID,
		FormVersion: session.FormVersion,
		Answers:     answers,
		Step:        step,
		Visible:     engine.VisibleFieldIDs(def.Fields, answers),
		Submitted:   session.State.Submitted,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}, nil
}

func (s *runtimeService) publishSubmissionEvents(ctx context.Context, submission *models.Submission, answerCount int, score *engine.ScoreResult) {
	received := events.NewSubmissionReceivedEvent(submission.ID, submission.FormID, submission.FormVersion,
		submission.RespondentID, submission.SubmittedAt, answerCount)
	if err := s.publisher.PublishEvent(ctx, received); err != nil {
		s.logger.Warn("Failed to publish submission event", "submission_id", submission.ID, "error", err)
	}

	if score == nil {
		return
	}
	scored := events.NewSubmissionScoredEvent(submission.ID, submission.FormID, submission.RespondentID,
		score.Earned, score.Possible, score.Percentage, score.Passed)
	if err := s.publisher.PublishEvent(ctx, scored); err != nil {
		s.logger.Warn("Failed to publish score event", "submission_id", submission.ID, "error", err)
	}
}

// mergeAnswers copies updates into dst. Absent values clear an answer; IDs
// that name no answerable field are dropped.
func mergeAnswers(def models.FormDefinition, dst, updates engine.Answers) {
	for id, v := range updates {
		f, ok := def.FieldByID(id)
		if !ok || f.Type.IsDisplay() {
			continue
		}
		if v.IsAbsent() {
			delete(dst, id)
			continue
		}
		dst[id] = v
	}
}

func applyScore(submission *models.Submission, result engine.ScoreResult) error {
	passed := result.Passed
	submission.Earned = result.Earned
	submission.Possible = result.Possible
	submission.Percentage = result.Percentage
	submission.Passed = &passed
	return submission.SetScoreDetail(result.PerField)
}

func buildSubmissionResult(submission *models.Submission, quiz models.QuizSettings, score *engine.ScoreResult) *SubmissionResultResponse {
	resp := &SubmissionResultResponse{
		SubmissionID: submission.ID,
		FormID:       submission.FormID,
		SubmittedAt:  submission.SubmittedAt,
	}
	if score == nil || !quiz.ShowResults {
		return resp
	}

	resp.Score = &ScoreView{
		Earned:     score.Earned,
		Possible:   score.Possible,
		Percentage: score.Percentage,
		Passed:     score.Passed,
	}
	if quiz.ShowCorrectAnswers {
		resp.Score.PerField = score.PerField
	}
	return resp
}

func mapNavigationError(err error) error {
	switch {
	case errors.Is(err, engine.ErrAlreadySubmitted):
		return ErrSessionSubmitted
	case errors.Is(err, engine.ErrValidationInFlight):
		return ErrSessionBusy
	case errors.Is(err, engine.ErrStepOutOfRange):
		return ErrSessionStale
	case errors.Is(err, engine.ErrNotFinalStep):
		return NewBusinessRuleError("final_step", "responses can only be submitted from the last step", nil)
	default:
		return fmt.Errorf("navigation failed: %w", err)
	}
}

func respondentLabel(respondentID *string) string {
	if respondentID == nil || *respondentID == "" {
		return "anonymous"
	}
	return *respondentID
}
