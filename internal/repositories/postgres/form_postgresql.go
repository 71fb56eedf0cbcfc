package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
)

var formSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

type FormPostgreSQL struct {
	db *gorm.DB
}

func NewFormPostgreSQL(db *gorm.DB) repositories.FormRepository {
	return &FormPostgreSQL{db: db}
}

func (f *FormPostgreSQL) Create(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	db := getDB(f.db, tx)
	if form.Status == "" {
		form.Status = models.FormStatusDraft
	}
	if form.Version == 0 {
		form.Version = 1
	}
	if err := db.WithContext(ctx).Create(form).Error; err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

func (f *FormPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	db := getDB(f.db, tx)
	var form models.Form
	if err := db.WithContext(ctx).First(&form, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &form, nil
}

func (f *FormPostgreSQL) Update(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	db := getDB(f.db, tx)
	if err := db.WithContext(ctx).Save(form).Error; err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	return nil
}

func (f *FormPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(f.db, tx)
	result := db.WithContext(ctx).Delete(&models.Form{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete form: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (f *FormPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	db := getDB(f.db, tx)
	query := db.WithContext(ctx).Model(&models.Form{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, formSortColumns, "created_at", filters.Limit, filters.Offset)

	var forms []*models.Form
	if err := query.Find(&forms).Error; err != nil {
		return nil, 0, err
	}

	return forms, total, nil
}
