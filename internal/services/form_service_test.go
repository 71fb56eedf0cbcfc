package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temic137/forms-sub004/internal/cache"
	"github.com/temic137/forms-sub004/internal/events"
	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
)

func simpleDefinition() models.FormDefinition {
	return models.FormDefinition{
		Fields: []models.Field{
			{ID: "name", Type: models.FieldText, Label: "Name", Required: true, Order: 1},
			{ID: "rating", Type: models.FieldRating, Label: "Rating", Order: 2},
		},
	}
}

func TestFormService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		request     *CreateFormRequest
		setupMocks  func(env *testEnv)
		expectError bool
		checkError  func(t *testing.T, err error)
	}{
		{
			name:    "successful creation",
			request: &CreateFormRequest{Title: "Feedback", Definition: simpleDefinition()},
			setupMocks: func(env *testEnv) {
				env.forms.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(form *models.Form) bool {
					return form.Title == "Feedback" &&
						form.Status == models.FormStatusDraft &&
						form.CreatedBy == "author-1" &&
						form.Version == 1
				})).Run(func(args mock.Arguments) {
					args.Get(2).(*models.Form).ID = 5
				}).Return(nil)
			},
		},
		{
			name:        "missing title",
			request:     &CreateFormRequest{Definition: simpleDefinition()},
			setupMocks:  func(env *testEnv) {},
			expectError: true,
			checkError: func(t *testing.T, err error) {
				var errs ValidationErrors
				require.True(t, errors.As(err, &errs))
				assert.NotEmpty(t, errs.ForField("title"))
			},
		},
		{
			name: "unknown field type",
			request: &CreateFormRequest{Title: "Bad", Definition: models.FormDefinition{
				Fields: []models.Field{{ID: "q1", Type: "slider"}},
			}},
			setupMocks:  func(env *testEnv) {},
			expectError: true,
			checkError: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
			},
		},
		{
			name: "duplicate field ids",
			request: &CreateFormRequest{Title: "Dup", Definition: models.FormDefinition{
				Fields: []models.Field{
					{ID: "q1", Type: models.FieldText},
					{ID: "q1", Type: models.FieldText},
				},
			}},
			setupMocks:  func(env *testEnv) {},
			expectError: true,
			checkError: func(t *testing.T, err error) {
				var errs ValidationErrors
				require.True(t, errors.As(err, &errs))
				assert.Equal(t, "unique", errs[0].Rule)
			},
		},
		{
			name:    "repository failure",
			request: &CreateFormRequest{Title: "Feedback", Definition: simpleDefinition()},
			setupMocks: func(env *testEnv) {
				env.forms.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			expectError: true,
			checkError: func(t *testing.T, err error) {
				assert.False(t, IsValidation(err))
				assert.Contains(t, err.Error(), "db down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setupMocks(env)

			resp, err := env.formService().Create(ctx, tt.request, "author-1")

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, resp)
				tt.checkError(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(5), resp.ID)
			assert.Equal(t, models.FormStatusDraft, resp.Status)
			assert.Len(t, resp.Definition.Fields, 2)
		})
	}
}

func TestFormService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("owner sees form with submission count", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
		env.submissions.On("CountByForm", mock.Anything, mock.Anything, uint(1)).Return(int64(7), nil)

		resp, err := env.formService().Get(ctx, 1, "author-1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.SubmissionCount)
		assert.Equal(t, "name", resp.Definition.Fields[0].ID)
	})

	t.Run("other users are rejected", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)

		_, err := env.formService().Get(ctx, 1, "intruder")
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("missing form", func(t *testing.T) {
		env := newTestEnv(t)
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(9)).Return(nil, repositories.ErrNotFound)

		_, err := env.formService().Get(ctx, 9, "author-1")
		assert.ErrorIs(t, err, ErrFormNotFound)
		assert.True(t, IsNotFound(err))
	})
}

func TestFormService_UpdateBumpsVersionAndDropsSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
	env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
	env.forms.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(f *models.Form) bool {
		return f.Version == 2 && f.Title == "Renamed"
	})).Return(nil)
	env.submissions.On("CountByForm", mock.Anything, mock.Anything, uint(1)).Return(int64(0), nil)

	require.NoError(t, env.formCache.SetForm(ctx, form))
	require.NoError(t, env.sessions.Save(ctx, &cache.FormSession{ID: "s1", FormID: 1}))

	def := simpleDefinition()
	def.Fields = append(def.Fields, models.Field{ID: "extra", Type: models.FieldTextarea, Order: 3})
	resp, err := env.formService().Update(ctx, 1, &UpdateFormRequest{Title: "Renamed", Definition: def}, "author-1")
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Version)
	assert.Len(t, resp.Definition.Fields, 3)
	assert.False(t, env.mem.has("form:1:definition"))
	assert.False(t, env.mem.has("form:1:session:s1"))
}

func TestFormService_UpdateClosedForm(t *testing.T) {
	env := newTestEnv(t)
	form := newForm(t, 1, models.FormStatusClosed, simpleDefinition())
	env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)

	_, err := env.formService().Update(context.Background(), 1,
		&UpdateFormRequest{Title: "x", Definition: simpleDefinition()}, "author-1")
	assert.ErrorIs(t, err, ErrFormNotEditable)
	assert.True(t, IsConflict(err))
}

func TestFormService_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("draft is published and announced", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusDraft, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
		env.forms.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(f *models.Form) bool {
			return f.Status == models.FormStatusPublished && f.PublishedAt != nil
		})).Return(nil)

		resp, err := env.formService().Publish(ctx, 1, "author-1")
		require.NoError(t, err)
		assert.Equal(t, models.FormStatusPublished, resp.Status)

		published := env.publisher.EventsOfType(events.EventFormPublished)
		require.Len(t, published, 1)
		data := published[0].Data.(events.FormPublishedEvent)
		assert.Equal(t, uint(1), data.FormID)
		assert.Equal(t, "author-1", data.PublishedBy)
	})

	t.Run("already published is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)

		_, err := env.formService().Publish(ctx, 1, "author-1")
		require.NoError(t, err)
		assert.Empty(t, env.publisher.GetPublishedEvents())
	})

	t.Run("event failure does not fail publish", func(t *testing.T) {
		env := newTestEnv(t)
		env.publisher.Err = errors.New("broker down")
		form := newForm(t, 1, models.FormStatusDraft, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
		env.forms.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := env.formService().Publish(ctx, 1, "author-1")
		assert.NoError(t, err)
	})
}

func TestFormService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("draft cannot be closed", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusDraft, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)

		_, err := env.formService().Close(ctx, 1, "author-1")
		assert.True(t, IsBusinessRule(err))
	})

	t.Run("published form closes", func(t *testing.T) {
		env := newTestEnv(t)
		form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
		env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
		env.forms.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		require.NoError(t, env.formCache.SetForm(ctx, form))

		resp, err := env.formService().Close(ctx, 1, "author-1")
		require.NoError(t, err)
		assert.Equal(t, models.FormStatusClosed, resp.Status)
		assert.False(t, env.mem.has("form:1:definition"))
	})
}

func TestFormService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	form := newForm(t, 1, models.FormStatusPublished, simpleDefinition())
	env.forms.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(form, nil)
	env.forms.On("Delete", mock.Anything, mock.Anything, uint(1)).Return(nil)
	require.NoError(t, env.formCache.SetForm(ctx, form))

	require.NoError(t, env.formService().Delete(ctx, 1, "author-1"))
	assert.False(t, env.mem.has("form:1:definition"))
}

func TestFormService_ListScopesToAuthor(t *testing.T) {
	env := newTestEnv(t)
	form := newForm(t, 1, models.FormStatusDraft, simpleDefinition())
	env.forms.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(f repositories.FormFilters) bool {
		return f.CreatedBy != nil && *f.CreatedBy == "author-1" && f.Limit == defaultPageSize && f.Search == "feed"
	})).Return([]*models.Form{form}, int64(1), nil)

	resp, err := env.formService().List(context.Background(), repositories.FormFilters{Search: "feed", Limit: -3}, "author-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, defaultPageSize, resp.Limit)
	require.Len(t, resp.Forms, 1)
}

func TestNormalizePage(t *testing.T) {
	limit, offset := normalizePage(0, -1)
	assert.Equal(t, defaultPageSize, limit)
	assert.Equal(t, 0, offset)

	limit, _ = normalizePage(500, 0)
	assert.Equal(t, maxPageSize, limit)
}
