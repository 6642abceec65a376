// internal/repository/chat_repository.go
package repository

import (
	"context"
	"fmt"

	"go_5_roadmap_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRepository インターフェース
type ChatRepository interface {
	Create(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error
	FindRecentByRoadmap(ctx context.Context, db *gorm.DB, roadmapID uuid.UUID, limit int) ([]model.ChatMessage, error)
	DeleteByRoadmap(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) error
}

type gormChatRepository struct{}

func NewGormChatRepository() ChatRepository {
	return &gormChatRepository{}
}

func (r *gormChatRepository) Create(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error {
	if err := tx.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("gormChatRepository.Create: %w", err)
	}
	return nil
}

// FindRecentByRoadmap は新しい順にlimit件取得し、時系列順に並べ替えて返します
func (r *gormChatRepository) FindRecentByRoadmap(ctx context.Context, db *gorm.DB, roadmapID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := db.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("gormChatRepository.FindRecentByRoadmap: %w", err)
	}
	// LLMに渡す文脈は古い順である必要がある
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *gormChatRepository) DeleteByRoadmap(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) error {
	if err := tx.WithContext(ctx).Where("roadmap_id = ?", roadmapID).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("gormChatRepository.DeleteByRoadmap: %w", err)
	}
	return nil
}
