// internal/handlers/project_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/service"
	"go_5_roadmap_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	service service.ProjectService
	logger  *slog.Logger
}

func NewProjectHandler(s service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		service: s,
		logger:  logger,
	}
}

// PostProject は新しいプロジェクトを作成するためのハンドラ
func (h *ProjectHandler) PostProject(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostProject"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.PostProjectRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			firstErr := validationErrors[0]
			appErr := model.NewAppError("VALIDATION_ERROR", firstErr.Translate(webutil.Trans), firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	project, err := h.service.CreateProject(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error creating project in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Project created successfully", slog.String("project_id", project.ProjectID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, project, logger)
}

// GetProjects はプロジェクト一覧を取得するためのハンドラ
func (h *ProjectHandler) GetProjects(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProjects"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	projects, err := h.service.ListProjects(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing projects in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if projects == nil {
		projects = []model.Project{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, projects, logger)
}

// GetProject は特定のプロジェクトを取得するためのハンドラ
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProject"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	projectID, ok := parseUUIDParam(w, r, logger, "project_id")
	if !ok {
		return
	}

	project, err := h.service.GetProject(r.Context(), userID, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Project not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting project from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, project, logger)
}

// PutProject はプロジェクトの名前・説明を更新するためのハンドラ
func (h *ProjectHandler) PutProject(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutProject"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	projectID, ok := parseUUIDParam(w, r, logger, "project_id")
	if !ok {
		return
	}

	var req model.PutProjectRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if req.Name == nil && req.Description == nil {
		logger.Warn("PutProject called with no fields provided for update")
		appErr := model.NewAppError("VALIDATION_ERROR", "更新するフィールドが指定されていません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), userID, projectID, &req)
	if err != nil {
		logger.Error("Error updating project in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Project updated successfully", slog.String("project_id", projectID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, project, logger)
}

// DeleteProject はプロジェクトを削除するためのハンドラ
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteProject"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	projectID, ok := parseUUIDParam(w, r, logger, "project_id")
	if !ok {
		return
	}

	if err := h.service.DeleteProject(r.Context(), userID, projectID); err != nil {
		logger.Error("Error deleting project in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Project deleted successfully", slog.String("project_id", projectID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// parseUUIDParam はURLパラメータのUUIDを検証する共通ヘルパー
func parseUUIDParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, name)
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid UUID format in URL", slog.String("param", name), slog.String("value", idStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", name+"の形式が正しくありません。", name, model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return id, true
}
