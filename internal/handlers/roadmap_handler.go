// internal/handlers/roadmap_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/service"
	"go_5_roadmap_keep/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type RoadmapHandler struct {
	service service.RoadmapService
	logger  *slog.Logger
}

func NewRoadmapHandler(s service.RoadmapService, logger *slog.Logger) *RoadmapHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoadmapHandler{
		service: s,
		logger:  logger,
	}
}

// PostGenerate はプロンプトからロードマップを生成するためのハンドラ
func (h *RoadmapHandler) PostGenerate(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostGenerate"))

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

	var req model.GenerateRoadmapRequest
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

	resp, err := h.service.Generate(r.Context(), userID, projectID, &req)
	if err != nil {
		logger.Error("Error generating roadmap in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Roadmap generation completed", slog.String("type", resp.Type))
	webutil.RespondWithJSON(w, http.StatusCreated, resp, logger)
}

// GetRoadmaps はプロジェクト内のロードマップ一覧を取得するためのハンドラ
func (h *RoadmapHandler) GetRoadmaps(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetRoadmaps"))

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

	roadmaps, err := h.service.ListRoadmaps(r.Context(), userID, projectID)
	if err != nil {
		logger.Error("Error listing roadmaps in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if roadmaps == nil {
		roadmaps = []model.RoadmapResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, roadmaps, logger)
}

// GetRoadmap は特定のロードマップをグラフ展開済みで取得するためのハンドラ
func (h *RoadmapHandler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetRoadmap"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	roadmapID, ok := parseUUIDParam(w, r, logger, "roadmap_id")
	if !ok {
		return
	}

	roadmap, err := h.service.GetRoadmap(r.Context(), userID, roadmapID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Roadmap not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting roadmap from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, roadmap, logger)
}

// PutRoadmap はロードマップを丸ごと置き換えるためのハンドラ
func (h *RoadmapHandler) PutRoadmap(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutRoadmap"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	roadmapID, ok := parseUUIDParam(w, r, logger, "roadmap_id")
	if !ok {
		return
	}

	var req model.PutRoadmapRequest
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

	roadmap, err := h.service.SaveRoadmap(r.Context(), userID, roadmapID, &req)
	if err != nil {
		logger.Error("Error saving roadmap in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Roadmap saved successfully", slog.String("roadmap_id", roadmapID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, roadmap, logger)
}

// DeleteRoadmap はロードマップを削除するためのハンドラ
func (h *RoadmapHandler) DeleteRoadmap(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteRoadmap"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	roadmapID, ok := parseUUIDParam(w, r, logger, "roadmap_id")
	if !ok {
		return
	}

	if err := h.service.DeleteRoadmap(r.Context(), userID, roadmapID); err != nil {
		logger.Error("Error deleting roadmap in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Roadmap deleted successfully", slog.String("roadmap_id", roadmapID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// GetProgress はロードマップの進捗サマリを取得するためのハンドラ
func (h *RoadmapHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	roadmapID, ok := parseUUIDParam(w, r, logger, "roadmap_id")
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID, roadmapID)
	if err != nil {
		logger.Error("Error getting progress from service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, progress, logger)
}
