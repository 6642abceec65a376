package service

import (
	"context"
	"errors"
	"time"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/llm"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatService はロードマップ文脈付きのメンターチャットを担当します
type ChatService interface {
	PostMessage(ctx context.Context, userID, roadmapID uuid.UUID, req *model.PostChatMessageRequest) (*model.PostChatMessageResponse, error)
	ListMessages(ctx context.Context, userID, roadmapID uuid.UUID) ([]model.ChatMessage, error)
}

type chatService struct {
	db          *gorm.DB
	chatRepo    repository.ChatRepository
	roadmapRepo repository.RoadmapRepository
	llmClient   *llm.Client
	cfg         *config.Config
}

func NewChatService(db *gorm.DB, chatRepo repository.ChatRepository, roadmapRepo repository.RoadmapRepository, llmClient *llm.Client, cfg *config.Config) ChatService {
	return &chatService{
		db:          db,
		chatRepo:    chatRepo,
		roadmapRepo: roadmapRepo,
		llmClient:   llmClient,
		cfg:         cfg,
	}
}

// PostMessage はユーザーの発言を保存し、直近の履歴を文脈としてLLMに渡して
// アシスタントの応答を生成・保存します
func (s *chatService) PostMessage(ctx context.Context, userID, roadmapID uuid.UUID, req *model.PostChatMessageRequest) (*model.PostChatMessageResponse, error) {
	logger := middleware.GetLogger(ctx)

	roadmap, err := s.roadmapRepo.FindByID(ctx, s.db, userID, roadmapID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	history, err := s.chatRepo.FindRecentByRoadmap(ctx, s.db, roadmapID, s.cfg.App.ChatHistoryLimit)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "チャット履歴の取得に失敗しました。", "", err)
	}

	llmHistory := make([]llm.Message, 0, len(history))
	for _, m := range history {
		llmHistory = append(llmHistory, llm.Message{Role: m.Role, Content: m.Content})
	}

	llmCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()

	reply, err := s.llmClient.Chat(llmCtx, roadmap.Title, llmHistory, req.Content)
	if err != nil {
		logger.Error("Chat completion failed", "error", err, "roadmap_id", roadmapID.String())
		return nil, model.NewAppError("LLM_UNAVAILABLE", "応答の生成に失敗しました。時間をおいて再度お試しください。", "", model.ErrInternalServer)
	}

	userMsg := &model.ChatMessage{
		MessageID: uuid.New(),
		RoadmapID: roadmapID,
		UserID:    userID,
		Role:      model.ChatRoleUser,
		Content:   req.Content,
	}
	assistantMsg := &model.ChatMessage{
		MessageID: uuid.New(),
		RoadmapID: roadmapID,
		UserID:    userID,
		Role:      model.ChatRoleAssistant,
		Content:   reply,
	}

	// 応答生成に成功してから発言・応答をまとめて保存する
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.Create(ctx, tx, userMsg); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "メッセージの保存に失敗しました。", "", err)
		}
		if err := s.chatRepo.Create(ctx, tx, assistantMsg); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "メッセージの保存に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Chat message posted", "roadmap_id", roadmapID.String())
	return &model.PostChatMessageResponse{Message: userMsg, Reply: assistantMsg}, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, roadmapID uuid.UUID) ([]model.ChatMessage, error) {
	if _, err := s.roadmapRepo.FindByID(ctx, s.db, userID, roadmapID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	messages, err := s.chatRepo.FindRecentByRoadmap(ctx, s.db, roadmapID, s.cfg.App.ChatHistoryLimit)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "チャット履歴の取得に失敗しました。", "", err)
	}
	return messages, nil
}
