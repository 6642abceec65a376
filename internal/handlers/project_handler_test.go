// internal/handlers/project_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go_5_roadmap_keep/internal/handlers"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProjectService は関数フィールド差し替え式のテストスタブ
type stubProjectService struct {
	createFn func(ctx context.Context, userID uuid.UUID, req *model.PostProjectRequest) (*model.Project, error)
	listFn   func(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	getFn    func(ctx context.Context, userID, projectID uuid.UUID) (*model.Project, error)
}

var _ service.ProjectService = (*stubProjectService)(nil)

func (s *stubProjectService) CreateProject(ctx context.Context, userID uuid.UUID, req *model.PostProjectRequest) (*model.Project, error) {
	return s.createFn(ctx, userID, req)
}

func (s *stubProjectService) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*model.Project, error) {
	return s.getFn(ctx, userID, projectID)
}

func (s *stubProjectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	return s.listFn(ctx, userID)
}

func (s *stubProjectService) UpdateProject(ctx context.Context, userID, projectID uuid.UUID, req *model.PutProjectRequest) (*model.Project, error) {
	panic("not used in this test")
}

func (s *stubProjectService) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error {
	panic("not used in this test")
}

func newProjectRouter(svc service.ProjectService) *chi.Mux {
	h := handlers.NewProjectHandler(svc, nil)
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.DevUserContextMiddleware) // テストではヘッダー認証で代用
		r.Post("/api/v1/projects", h.PostProject)
		r.Get("/api/v1/projects", h.GetProjects)
		r.Get("/api/v1/projects/{project_id}", h.GetProject)
	})
	return router
}

func createRequest(t *testing.T, method, path string, body interface{}, userID *uuid.UUID) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	return req
}

func TestProjectHandler_PostProject(t *testing.T) {
	userID := uuid.New()
	validBody := model.PostProjectRequest{Name: "Go学習", Description: "バックエンド強化"}

	tests := []struct {
		name           string
		userID         *uuid.UUID
		body           interface{}
		createFn       func(ctx context.Context, uid uuid.UUID, req *model.PostProjectRequest) (*model.Project, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:   "正常系: プロジェクトが作成される",
			userID: &userID,
			body:   validBody,
			createFn: func(_ context.Context, uid uuid.UUID, req *model.PostProjectRequest) (*model.Project, error) {
				assert.Equal(t, userID, uid)
				return &model.Project{ProjectID: uuid.New(), UserID: uid, Name: req.Name, Description: req.Description}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "異常系: 認証ヘッダーなしは401",
			userID:         nil,
			body:           validBody,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: nameなしはバリデーションエラー",
			userID:         &userID,
			body:           model.PostProjectRequest{Description: "説明のみ"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:   "異常系: サービスのNotFoundは404に変換される",
			userID: &userID,
			body:   validBody,
			createFn: func(_ context.Context, _ uuid.UUID, _ *model.PostProjectRequest) (*model.Project, error) {
				return nil, model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "PROJECT_NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newProjectRouter(&stubProjectService{createFn: tc.createFn})

			req := createRequest(t, http.MethodPost, "/api/v1/projects", tc.body, tc.userID)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)

			if tc.expectedStatus == http.StatusCreated {
				var resp model.Project
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "Go学習", resp.Name)
				assert.NotEqual(t, uuid.Nil, resp.ProjectID)
			} else if tc.expectedCode != "" {
				var errResp model.APIErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
				assert.Equal(t, tc.expectedCode, errResp.Error.Code)
			}
		})
	}
}

func TestProjectHandler_GetProjects(t *testing.T) {
	userID := uuid.New()

	t.Run("正常系: 空でもnullではなく空配列を返す", func(t *testing.T) {
		router := newProjectRouter(&stubProjectService{
			listFn: func(_ context.Context, _ uuid.UUID) ([]model.Project, error) {
				return nil, nil
			},
		})

		req := createRequest(t, http.MethodGet, "/api/v1/projects", nil, &userID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestProjectHandler_GetProject(t *testing.T) {
	userID := uuid.New()

	t.Run("異常系: project_idがUUIDでない場合は400", func(t *testing.T) {
		router := newProjectRouter(&stubProjectService{})

		req := createRequest(t, http.MethodGet, "/api/v1/projects/not-a-uuid", nil, &userID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errResp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
		assert.Equal(t, "INVALID_URL_PARAM", errResp.Error.Code)
	})
}
