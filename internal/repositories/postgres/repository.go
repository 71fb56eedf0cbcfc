package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
)

type repository struct {
	db         *gorm.DB
	form       repositories.FormRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		form:       NewFormPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *repository) Form() repositories.FormRepository {
	return r.form
}

func (r *repository) Submission() repositories.SubmissionRepository {
	return r.submission
}

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate creates or updates the tables backing the repositories.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Form{}, &models.Submission{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

// applyPaginationAndSort orders by an allow-listed column and pages the query.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool, defaultSort string, limit, offset int) *gorm.DB {
	if !allowed[sortBy] {
		sortBy = defaultSort
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
