package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
)

var submissionSortColumns = map[string]bool{
	"submitted_at": true,
	"percentage":   true,
}

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := getDB(s.db, tx)
	if err := db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := getDB(s.db, tx)
	var submission models.Submission
	if err := db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	db := getDB(s.db, tx)
	query := db.WithContext(ctx).Model(&models.Submission{}).Where("form_id = ?", formID)

	if filters.RespondentID != nil {
		query = query.Where("respondent_id = ?", *filters.RespondentID)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, submissionSortColumns, "submitted_at", filters.Limit, filters.Offset)

	var submissions []*models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error) {
	db := getDB(s.db, tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Submission{}).Where("form_id = ?", formID).Count(&count).Error
	return count, err
}

func (s *SubmissionPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, formID uint) (*repositories.SubmissionStats, error) {
	db := getDB(s.db, tx)

	var row struct {
		Total       int64
		Scored      int64
		AvgPercent  float64
		PassedCount int64
	}
	err := db.WithContext(ctx).Model(&models.Submission{}).
		Select(`COUNT(*) AS total,
			COUNT(passed) AS scored,
			COALESCE(AVG(percentage) FILTER (WHERE passed IS NOT NULL), 0) AS avg_percent,
			COUNT(*) FILTER (WHERE passed) AS passed_count`).
		Where("form_id = ?", formID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %w", err)
	}

	stats := &repositories.SubmissionStats{
		TotalSubmissions: row.Total,
		ScoredCount:      row.Scored,
		AveragePercent:   row.AvgPercent,
	}
	if row.Scored > 0 {
		stats.PassRate = float64(row.PassedCount) / float64(row.Scored) * 100
	}
	return stats, nil
}
