package cache

import (
	"context"
	"errors"
	"time"

	"github.com/temic137/forms-sub004/internal/models"
)

// FormCache keeps published form definitions close to the runtime endpoints.
type FormCache interface {
	// GetForm returns nil, nil on a miss.
	GetForm(ctx context.Context, formID uint) (*models.Form, error)
	SetForm(ctx context.Context, form *models.Form) error
	InvalidateForm(ctx context.Context, formID uint) error
}

type formCache struct {
	cache CacheService
	ttl   time.Duration
}

func NewFormCache(cache CacheService, ttl time.Duration) FormCache {
	return &formCache{cache: cache, ttl: ttl}
}

func (c *formCache) GetForm(ctx context.Context, formID uint) (*models.Form, error) {
	var form models.Form
	err := c.cache.Get(ctx, formKey(formID), &form)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (c *formCache) SetForm(ctx context.Context, form *models.Form) error {
	return c.cache.Set(ctx, formKey(form.ID), form, c.ttl)
}

func (c *formCache) InvalidateForm(ctx context.Context, formID uint) error {
	return c.cache.Delete(ctx, formKey(formID))
}
