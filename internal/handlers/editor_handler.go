// internal/handlers/editor_handler.go
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

type EditorHandler struct {
	service service.EditorService
	logger  *slog.Logger
}

func NewEditorHandler(s service.EditorService, logger *slog.Logger) *EditorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditorHandler{
		service: s,
		logger:  logger,
	}
}

// PostOpen は編集セッションを開始するためのハンドラ
func (h *EditorHandler) PostOpen(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostOpen"))

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

	state, err := h.service.Open(r.Context(), userID, roadmapID)
	if err != nil {
		logger.Error("Error opening editor session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Editor session opened", slog.String("roadmap_id", roadmapID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// PostAction は編集操作 (選択・削除・複製・undo/redo等) を適用するためのハンドラ
func (h *EditorHandler) PostAction(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAction"))

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

	var req model.EditorActionRequest
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

	state, err := h.service.Apply(r.Context(), userID, roadmapID, &req)
	if err != nil {
		logger.Error("Error applying editor action in service", slog.Any("error", err), slog.String("action", req.Action))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// PostCommit はセッションの編集内容をロードマップに保存するためのハンドラ
func (h *EditorHandler) PostCommit(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostCommit"))

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

	roadmap, err := h.service.Commit(r.Context(), userID, roadmapID)
	if err != nil {
		logger.Error("Error committing editor session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Editor session committed", slog.String("roadmap_id", roadmapID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, roadmap, logger)
}

// DeleteSession は編集セッションを破棄するためのハンドラ
func (h *EditorHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteSession"))

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

	h.service.Close(userID, roadmapID)

	logger.Info("Editor session closed", slog.String("roadmap_id", roadmapID.String()))
	w.WriteHeader(http.StatusNoContent)
}
