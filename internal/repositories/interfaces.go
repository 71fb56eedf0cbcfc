package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/models"
)

var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type FormFilters struct {
	Status    *models.FormStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	Search    string             `json:"search"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "updated_at", "title"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	RespondentID *string    `json:"respondent_id"`
	Passed       *bool      `json:"passed"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
	SortBy       string     `json:"sort_by"`    // "submitted_at", "percentage"
	SortOrder    string     `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type SubmissionStats struct {
	TotalSubmissions int64   `json:"total_submissions"`
	ScoredCount      int64   `json:"scored_count"`
	AveragePercent   float64 `json:"average_percentage"`
	PassRate         float64 `json:"pass_rate"`
}

// ===== REPOSITORIES =====

// FormRepository persists form definitions. A nil tx uses the default connection.
type FormRepository interface {
	Create(ctx context.Context, tx *gorm.DB, form *models.Form) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error)
	Update(ctx context.Context, tx *gorm.DB, form *models.Form) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error // Soft delete
	List(ctx context.Context, tx *gorm.DB, filters FormFilters) ([]*models.Form, int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error)
	GetStats(ctx context.Context, tx *gorm.DB, formID uint) (*SubmissionStats, error)
}

// Repository groups the repositories behind one connection.
type Repository interface {
	Form() FormRepository
	Submission() SubmissionRepository
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
