// internal/handlers/quiz_handler.go
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
)

type QuizHandler struct {
	service service.QuizService
	logger  *slog.Logger
}

func NewQuizHandler(s service.QuizService, logger *slog.Logger) *QuizHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizHandler{
		service: s,
		logger:  logger,
	}
}

// PostGenerateQuiz は指定ノードのクイズを生成するためのハンドラ
func (h *QuizHandler) PostGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostGenerateQuiz"))

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
	nodeID := chi.URLParam(r, "node_id")
	if nodeID == "" {
		appErr := model.NewAppError("INVALID_URL_PARAM", "node_idが指定されていません。", "node_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("roadmap_id", roadmapID.String()), slog.String("node_id", nodeID))

	resp, err := h.service.GenerateQuiz(r.Context(), userID, roadmapID, nodeID)
	if err != nil {
		if errors.Is(err, model.ErrQuizLocked) {
			logger.Info("Quiz is locked", slog.Any("error", err))
		} else {
			logger.Error("Error generating quiz in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Quiz generated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// PutQuizResult はクイズの回答を採点し、結果をupsertするためのハンドラ
func (h *QuizHandler) PutQuizResult(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutQuizResult"))

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
	nodeID := chi.URLParam(r, "node_id")
	if nodeID == "" {
		appErr := model.NewAppError("INVALID_URL_PARAM", "node_idが指定されていません。", "node_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("roadmap_id", roadmapID.String()), slog.String("node_id", nodeID))

	var req model.SubmitQuizRequest
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

	resp, err := h.service.SubmitQuiz(r.Context(), userID, roadmapID, nodeID, &req)
	if err != nil {
		logger.Error("Error submitting quiz in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Quiz submitted successfully", slog.Int("score", resp.Score), slog.Bool("passed", resp.Passed))
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// GetQuizResult は指定ノードの最新の受験結果を取得するためのハンドラ
func (h *QuizHandler) GetQuizResult(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetQuizResult"))

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
	nodeID := chi.URLParam(r, "node_id")
	if nodeID == "" {
		appErr := model.NewAppError("INVALID_URL_PARAM", "node_idが指定されていません。", "node_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	result, err := h.service.GetResult(r.Context(), userID, roadmapID, nodeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Quiz result not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting quiz result from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
