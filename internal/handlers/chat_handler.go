// internal/handlers/chat_handler.go
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

type ChatHandler struct {
	service service.ChatService
	logger  *slog.Logger
}

func NewChatHandler(s service.ChatService, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		service: s,
		logger:  logger,
	}
}

// PostMessage はメンターチャットにメッセージを投稿するためのハンドラ
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostMessage"))

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

	var req model.PostChatMessageRequest
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

	resp, err := h.service.PostMessage(r.Context(), userID, roadmapID, &req)
	if err != nil {
		logger.Error("Error posting chat message in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Chat message posted successfully", slog.String("roadmap_id", roadmapID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, resp, logger)
}

// GetMessages はチャット履歴を取得するためのハンドラ
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetMessages"))

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

	messages, err := h.service.ListMessages(r.Context(), userID, roadmapID)
	if err != nil {
		logger.Error("Error listing chat messages in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if messages == nil {
		messages = []model.ChatMessage{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, messages, logger)
}
