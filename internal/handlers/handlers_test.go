package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
	"github.com/temic137/forms-sub004/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== SERVICE MOCKS =====

type MockFormService struct{ mock.Mock }

func (m *MockFormService) Create(ctx context.Context, req *services.CreateFormRequest, userID string) (*services.FormResponse, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormResponse), args.Error(1)
}

func (m *MockFormService) Get(ctx context.Context, id uint, userID string) (*services.FormResponse, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormResponse), args.Error(1)
}

func (m *MockFormService) Update(ctx context.Context, id uint, req *services.UpdateFormRequest, userID string) (*services.FormResponse, error) {
	args := m.Called(ctx, id, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormResponse), args.Error(1)
}

func (m *MockFormService) Publish(ctx context.Context, id uint, userID string) (*services.FormResponse, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormResponse), args.Error(1)
}

func (m *MockFormService) Close(ctx context.Context, id uint, userID string) (*services.FormResponse, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormResponse), args.Error(1)
}

func (m *MockFormService) Delete(ctx context.Context, id uint, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockFormService) List(ctx context.Context, filters repositories.FormFilters, userID string) (*services.FormListResponse, error) {
	args := m.Called(ctx, filters, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FormListResponse), args.Error(1)
}

type MockRuntimeService struct{ mock.Mock }

func (m *MockRuntimeService) GetPublicForm(ctx context.Context, formID uint) (*services.PublicFormResponse, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PublicFormResponse), args.Error(1)
}

func (m *MockRuntimeService) EvaluateVisibility(ctx context.Context, formID uint, answers engine.Answers) (*services.VisibilityResponse, error) {
	args := m.Called(ctx, formID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VisibilityResponse), args.Error(1)
}

func (m *MockRuntimeService) ScorePreview(ctx context.Context, formID uint, answers engine.Answers, userID string) (*engine.ScoreResult, error) {
	args := m.Called(ctx, formID, answers, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ScoreResult), args.Error(1)
}

func (m *MockRuntimeService) StartSession(ctx context.Context, formID uint, respondentID *string) (*services.SessionResponse, error) {
	args := m.Called(ctx, formID, respondentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResponse), args.Error(1)
}

func (m *MockRuntimeService) GetSession(ctx context.Context, formID uint, sessionID string) (*services.SessionResponse, error) {
	args := m.Called(ctx, formID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResponse), args.Error(1)
}

func (m *MockRuntimeService) UpdateAnswers(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*services.SessionResponse, error) {
	args := m.Called(ctx, formID, sessionID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResponse), args.Error(1)
}

func (m *MockRuntimeService) NextStep(ctx context.Context, formID uint, sessionID string, answers engine.Answers) (*services.StepTransitionResponse, error) {
	args := m.Called(ctx, formID, sessionID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StepTransitionResponse), args.Error(1)
}

func (m *MockRuntimeService) PreviousStep(ctx context.Context, formID uint, sessionID string) (*services.StepTransitionResponse, error) {
	args := m.Called(ctx, formID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StepTransitionResponse), args.Error(1)
}

func (m *MockRuntimeService) Submit(ctx context.Context, formID uint, req *services.SubmitRequest, respondentID *string) (*services.SubmissionResultResponse, error) {
	args := m.Called(ctx, formID, req, respondentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmissionResultResponse), args.Error(1)
}

type MockSubmissionService struct{ mock.Mock }

func (m *MockSubmissionService) List(ctx context.Context, formID uint, filters repositories.SubmissionFilters, userID string) (*services.SubmissionListResponse, error) {
	args := m.Called(ctx, formID, filters, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmissionListResponse), args.Error(1)
}

func (m *MockSubmissionService) Get(ctx context.Context, formID, submissionID uint, userID string) (*services.SubmissionResponse, error) {
	args := m.Called(ctx, formID, submissionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmissionResponse), args.Error(1)
}

func (m *MockSubmissionService) GetStats(ctx context.Context, formID uint, userID string) (*repositories.SubmissionStats, error) {
	args := m.Called(ctx, formID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.SubmissionStats), args.Error(1)
}

func (m *MockSubmissionService) ExportSubmissions(ctx context.Context, formID uint, userID string) ([]byte, error) {
	args := m.Called(ctx, formID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type stubTokenParser struct {
	claims map[string]*casdoorsdk.Claims
}

func (p *stubTokenParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if claims, ok := p.claims[token]; ok {
		return claims, nil
	}
	return nil, errors.New("token signature is invalid")
}

// ===== TEST HARNESS =====

type handlerEnv struct {
	forms       *MockFormService
	runtime     *MockRuntimeService
	submissions *MockSubmissionService
	router      *gin.Engine
}

func newHandlerEnv(t *testing.T, parser TokenParser) *handlerEnv {
	t.Helper()

	env := &handlerEnv{
		forms:       new(MockFormService),
		runtime:     new(MockRuntimeService),
		submissions: new(MockSubmissionService),
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	hm := NewHandlerManager(Services{
		Form:       env.forms,
		Runtime:    env.runtime,
		Submission: env.submissions,
	}, NewAuthenticator(parser, logger), validator.New(), logger, []string{"*"})
	env.router = hm.NewRouter()

	t.Cleanup(func() {
		env.forms.AssertExpectations(t)
		env.runtime.AssertExpectations(t)
		env.submissions.AssertExpectations(t)
	})
	return env
}

func (e *handlerEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func asUser(id string) map[string]string {
	return map[string]string{devUserHeader: id}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===== FORM ROUTES =====

func TestCreateForm(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.forms.On("Create", mock.Anything, mock.MatchedBy(func(req *services.CreateFormRequest) bool {
		return req.Title == "Survey"
	}), "author-1").Return(&services.FormResponse{ID: 7, Title: "Survey", Status: models.FormStatusDraft}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms", map[string]interface{}{
		"title":      "Survey",
		"definition": map[string]interface{}{"fields": []interface{}{}},
	}, asUser("author-1"))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data services.FormResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.Data.ID)
}

func TestCreateForm_InvalidJSON(t *testing.T) {
	env := newHandlerEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormRoutes_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", services.ErrFormNotFound, http.StatusNotFound, "form_not_found"},
		{"permission", services.NewPermissionError("intruder", 3, "form", "read", "not the owner"), http.StatusForbidden, "forbidden"},
		{"validation", services.ValidationErrors{{Field: "title", Message: "required"}}, http.StatusBadRequest, "validation_failed"},
		{"business rule", services.NewBusinessRuleError("form_status", "only published forms can be closed", nil), http.StatusUnprocessableEntity, "business_rule"},
		{"not editable", services.ErrFormNotEditable, http.StatusConflict, "form_not_editable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newHandlerEnv(t, nil)
			env.forms.On("Get", mock.Anything, uint(3), "author-1").Return(nil, tt.err)

			w := env.do(http.MethodGet, "/api/v1/forms/3", nil, asUser("author-1"))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestGetForm_InvalidID(t *testing.T) {
	env := newHandlerEnv(t, nil)

	for _, path := range []string{"/api/v1/forms/abc", "/api/v1/forms/0"} {
		w := env.do(http.MethodGet, path, nil, asUser("author-1"))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListForms_Paging(t *testing.T) {
	env := newHandlerEnv(t, nil)
	published := models.FormStatusPublished

	env.forms.On("List", mock.Anything, repositories.FormFilters{
		Status: &published,
		Search: "quiz",
		Limit:  10,
		Offset: 20,
	}, "author-1").Return(&services.FormListResponse{Total: 0}, nil)

	w := env.do(http.MethodGet, "/api/v1/forms?status=published&search=quiz&page=3&size=10", nil, asUser("author-1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteForm(t *testing.T) {
	env := newHandlerEnv(t, nil)
	env.forms.On("Delete", mock.Anything, uint(4), "author-1").Return(nil)

	w := env.do(http.MethodDelete, "/api/v1/forms/4", nil, asUser("author-1"))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

// ===== RUNTIME ROUTES =====

func TestEvaluateVisibility(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.runtime.On("EvaluateVisibility", mock.Anything, uint(1), engine.Answers{"q1": models.String("yes")}).
		Return(&services.VisibilityResponse{VisibleFieldIDs: []string{"q1", "q2"}}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/1/visibility", map[string]interface{}{
		"answers": map[string]interface{}{"q1": "yes"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"q2"`)
}

func TestGetPublicForm_NotPublished(t *testing.T) {
	env := newHandlerEnv(t, nil)
	env.runtime.On("GetPublicForm", mock.Anything, uint(2)).Return(nil, services.ErrFormNotPublished)

	w := env.do(http.MethodGet, "/api/v1/forms/2/public", nil, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "form_not_published", decodeError(t, w).Code)
}

func TestStartSession_UsesBodyRespondentWhenAnonymous(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.runtime.On("StartSession", mock.Anything, uint(5), mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "guest-9"
	})).Return(&services.SessionResponse{SessionID: "s-1", FormID: 5}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/5/sessions", map[string]interface{}{"respondent_id": "guest-9"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestStartSession_PrefersAuthenticatedUser(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.runtime.On("StartSession", mock.Anything, uint(5), mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "user-1"
	})).Return(&services.SessionResponse{SessionID: "s-1", FormID: 5}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/5/sessions", map[string]interface{}{"respondent_id": "guest-9"}, asUser("user-1"))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestNextStep_InvalidStepReturns422(t *testing.T) {
	env := newHandlerEnv(t, nil)

	transition := &services.StepTransitionResponse{
		Transition: engine.Transition{
			From: 0,
			To:   0,
			Errors: services.ValidationErrors{
				{Field: "name", Message: "This field is required", Rule: "required"},
			},
		},
	}
	env.runtime.On("NextStep", mock.Anything, uint(1), "s-1", engine.Answers(nil)).Return(transition, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/1/sessions/s-1/next", nil, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "step_invalid", resp.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)
}

func TestNextStep_Advances(t *testing.T) {
	env := newHandlerEnv(t, nil)

	answers := engine.Answers{"name": models.String("Ada")}
	env.runtime.On("NextStep", mock.Anything, uint(1), "s-1", answers).Return(&services.StepTransitionResponse{
		Transition: engine.Transition{From: 0, To: 1, Moved: true},
	}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/1/sessions/s-1/next", map[string]interface{}{
		"answers": map[string]interface{}{"name": "Ada"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"moved":true`)
}

func TestGetSession_Stale(t *testing.T) {
	env := newHandlerEnv(t, nil)
	env.runtime.On("GetSession", mock.Anything, uint(1), "s-1").Return(nil, services.ErrSessionStale)

	w := env.do(http.MethodGet, "/api/v1/forms/1/sessions/s-1", nil, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "session_stale", decodeError(t, w).Code)
}

func TestSubmit_Anonymous(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.runtime.On("Submit", mock.Anything, uint(1), mock.AnythingOfType("*services.SubmitRequest"), (*string)(nil)).
		Return(&services.SubmissionResultResponse{SubmissionID: 11, FormID: 1}, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{
		"answers": map[string]interface{}{"q1": "yes"},
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"submission_id":11`)
}

func TestSubmit_RejectsMalformedSessionID(t *testing.T) {
	env := newHandlerEnv(t, nil)

	w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{
		"session_id": "not-a-uuid",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decodeError(t, w).Code)
}

func TestSubmit_NotOnFinalStep(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.runtime.On("Submit", mock.Anything, uint(1), mock.Anything, (*string)(nil)).
		Return(nil, services.NewBusinessRuleError("final_step", "submission is only allowed from the last step", nil))

	w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{
		"session_id": "3f2b8a9e-5f7c-4c1d-9a35-2c8f1e6d7b40",
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"rule":"final_step"`)
}

func TestScorePreview_RequiresAuthWhenTokensEnabled(t *testing.T) {
	env := newHandlerEnv(t, &stubTokenParser{})

	w := env.do(http.MethodPost, "/api/v1/forms/1/score-preview", map[string]interface{}{"answers": map[string]interface{}{}}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ===== SUBMISSION ROUTES =====

func TestListSubmissions_Filters(t *testing.T) {
	env := newHandlerEnv(t, nil)

	env.submissions.On("List", mock.Anything, uint(1), mock.MatchedBy(func(f repositories.SubmissionFilters) bool {
		return f.Passed != nil && *f.Passed && f.DateFrom != nil && f.Limit == 20 && f.Offset == 0
	}), "author-1").Return(&services.SubmissionListResponse{Total: 1}, nil)

	w := env.do(http.MethodGet, "/api/v1/forms/1/submissions?passed=true&date_from=2025-01-01T00:00:00Z", nil, asUser("author-1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSubmissions_BadFilter(t *testing.T) {
	env := newHandlerEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/forms/1/submissions?passed=maybe", nil, asUser("author-1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportSubmissions(t *testing.T) {
	env := newHandlerEnv(t, nil)
	env.submissions.On("ExportSubmissions", mock.Anything, uint(9), "author-1").Return([]byte("PK\x03\x04"), nil)

	w := env.do(http.MethodGet, "/api/v1/forms/9/export", nil, asUser("author-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "form-9-submissions-")
	assert.Equal(t, "PK\x03\x04", w.Body.String())
}

func TestGetSubmission_WrongForm(t *testing.T) {
	env := newHandlerEnv(t, nil)
	env.submissions.On("Get", mock.Anything, uint(1), uint(2), "author-1").Return(nil, services.ErrSubmissionNotFound)

	w := env.do(http.MethodGet, "/api/v1/forms/1/submissions/2", nil, asUser("author-1"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===== AUTH & MIDDLEWARE =====

func TestRequireAuth_WithTokens(t *testing.T) {
	parser := &stubTokenParser{claims: map[string]*casdoorsdk.Claims{
		"good":  {User: casdoorsdk.User{Id: "u-42", Owner: "acme", Name: "ada"}},
		"empty": {AccessToken: "opaque"},
	}}

	t.Run("missing token", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodGet, "/api/v1/forms/1", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodGet, "/api/v1/forms/1", nil, map[string]string{"Authorization": "Basic good"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("header identity ignored", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodGet, "/api/v1/forms/1", nil, asUser("spoofed"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		env.forms.On("Get", mock.Anything, uint(1), "u-42").Return(&services.FormResponse{ID: 1}, nil)

		w := env.do(http.MethodGet, "/api/v1/forms/1", nil, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token without user", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodGet, "/api/v1/forms/1", nil, map[string]string{"Authorization": "Bearer empty"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth_WithTokens(t *testing.T) {
	parser := &stubTokenParser{claims: map[string]*casdoorsdk.Claims{
		"good":  {User: casdoorsdk.User{Owner: "acme", Name: "ada"}},
		"empty": {User: casdoorsdk.User{Owner: "acme"}},
	}}

	t.Run("anonymous", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		env.runtime.On("Submit", mock.Anything, uint(1), mock.Anything, (*string)(nil)).
			Return(&services.SubmissionResultResponse{SubmissionID: 1}, nil)

		w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{}, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("falls back to owner and name", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		env.runtime.On("Submit", mock.Anything, uint(1), mock.Anything, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "acme/ada"
		})).Return(&services.SubmissionResultResponse{SubmissionID: 1}, nil)

		w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{}, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{}, map[string]string{"Authorization": "Bearer forged"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without user", func(t *testing.T) {
		env := newHandlerEnv(t, parser)
		w := env.do(http.MethodPost, "/api/v1/forms/1/submissions", map[string]interface{}{}, map[string]string{"Authorization": "Bearer empty"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	env := newHandlerEnv(t, nil)

	w := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = env.do(http.MethodGet, "/health", nil, map[string]string{requestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}
