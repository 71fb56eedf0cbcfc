package services

import (
	"time"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/models"
)

// ===== FORM DTOs =====

type CreateFormRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Definition  models.FormDefinition `json:"definition"`
}

func (r *CreateFormRequest) FormDefinition() *models.FormDefinition {
	return &r.Definition
}

type UpdateFormRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Definition  models.FormDefinition `json:"definition"`
}

func (r *UpdateFormRequest) FormDefinition() *models.FormDefinition {
	return &r.Definition
}

type FormResponse struct {
	ID              uint                  `json:"id"`
	Title           string                `json:"title"`
	Description     *string               `json:"description,omitempty"`
	Status          models.FormStatus     `json:"status"`
	CreatedBy       string                `json:"created_by"`
	Version         int                   `json:"version"`
	PublishedAt     *time.Time            `json:"published_at,omitempty"`
	Definition      models.FormDefinition `json:"definition"`
	SubmissionCount int64                 `json:"submission_count"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type FormListResponse struct {
	Forms  []*FormResponse `json:"forms"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// PublicFormResponse is the respondent view of a published form. Answer keys
// are stripped from every quiz config.
type PublicFormResponse struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Version     int                   `json:"version"`
	Definition  models.FormDefinition `json:"definition"`
}

// ===== RUNTIME DTOs =====

type AnswersRequest struct {
	Answers engine.Answers `json:"answers"`
}

type VisibilityResponse struct {
	VisibleFieldIDs []string        `json:"visible_field_ids"`
	Visibility      map[string]bool `json:"visibility"`
}

type StartSessionRequest struct {
	RespondentID *string `json:"respondent_id,omitempty" validate:"omitempty,max=255"`
}

type SessionResponse struct {
	SessionID   string          `json:"session_id"`
	FormID      uint            `json:"form_id"`
	FormVersion int             `json:"form_version"`
	Answers     engine.Answers  `json:"answers"`
	Step        engine.StepView `json:"step"`
	Visible     []string        `json:"visible_field_ids"`
	Submitted   bool            `json:"submitted"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type StepTransitionResponse struct {
	Transition engine.Transition `json:"transition"`
	Session    *SessionResponse  `json:"session"`
}

type SubmitRequest struct {
	SessionID string         `json:"session_id,omitempty" validate:"omitempty,uuid"`
	Answers   engine.Answers `json:"answers"`
}

// ScoreView is the part of a score a respondent may see.
type ScoreView struct {
	Earned     float64             `json:"earned"`
	Possible   float64             `json:"possible"`
	Percentage int                 `json:"percentage"`
	Passed     bool                `json:"passed"`
	PerField   []models.FieldScore `json:"per_field,omitempty"`
}

type SubmissionResultResponse struct {
	SubmissionID uint       `json:"submission_id"`
	FormID       uint       `json:"form_id"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Score        *ScoreView `json:"score,omitempty"`
}

// ===== RESULTS DTOs =====

type SubmissionResponse struct {
	ID           uint                    `json:"id"`
	FormID       uint                    `json:"form_id"`
	FormVersion  int                     `json:"form_version"`
	RespondentID *string                 `json:"respondent_id,omitempty"`
	Answers      map[string]models.Value `json:"answers"`
	Earned       float64                 `json:"earned"`
	Possible     float64                 `json:"possible"`
	Percentage   int                     `json:"percentage"`
	Passed       *bool                   `json:"passed,omitempty"`
	ScoreDetail  []models.FieldScore     `json:"score_detail,omitempty"`
	SubmittedAt  time.Time               `json:"submitted_at"`
}

type SubmissionListResponse struct {
	Submissions []*SubmissionResponse `json:"submissions"`
	Total       int64                 `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}
