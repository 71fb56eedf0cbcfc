package services

import (
	"context"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/repositories"
)

// FormService manages form definitions on behalf of their authors.
type FormService interface {
	Create(ctx context.Context, req *CreateFormRequest, userID string) (*FormResponse, error)
	Get(ctx context.Context, id uint, userID string) (*FormResponse, error)
	Update(ctx context.Context, id uint, req *UpdateFormRequest, userID string) (*FormResponse, error)
	Publish(ctx context.Context, id uint, userID string) (*FormResponse, error)
	Close(ctx context.Context, id uint, userID string) (*FormResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.FormFilters, userID string) (*FormListResponse, error)
}

// RuntimeService runs published forms for respondents.
type RuntimeService interface {
	GetPublicForm(ctx context.Context, formID uint) (*PublicFormResponse, error)
	EvaluateVisibility(ctx context.Context, formID uint, answers engine.Answers) (*VisibilityResponse, error)
	// ScorePreview grades answers against any of the owner's forms without persisting.
	ScorePreview(ctx context.Context, formID uint, answers engine.Answers, userID string) (*engine.ScoreResult, error)

	StartSession(ctx context.Context, formID uint, respondentID *string) (*SessionResponse, error)
	GetSession(ctx context.Context, formID uint, sessionID string) (*SessionResponse, error)
	UpdateAnswers(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*SessionResponse, error)
	NextStep(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*StepTransitionResponse, error)
	PreviousStep(ctx context.Context, formID uint, sessionID string) (*StepTransitionResponse, error)

	Submit(ctx context.Context, formID uint, req *SubmitRequest, respondentID *string) (*SubmissionResultResponse, error)
}

// SubmissionService exposes collected responses to the form owner.
type SubmissionService interface {
	List(ctx context.Context, formID uint, filters repositories.SubmissionFilters, userID string) (*SubmissionListResponse, error)
	Get(ctx context.Context, formID, submissionID uint, userID string) (*SubmissionResponse, error)
	GetStats(ctx context.Context, formID uint, userID string) (*repositories.SubmissionStats, error)
	ExportSubmissions(ctx context.Context, formID uint, userID string) ([]byte, error)
}
