// internal/repository/quiz_result_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_roadmap_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizResultRepository インターフェース
// クイズ結果は (roadmap_id, node_id, user_id) ごとに最新1件のみ保持します
type QuizResultRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, result *model.QuizResult) error
	Find(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID, nodeID string) (*model.QuizResult, error)
	PassedNodeIDs(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID) (map[string]bool, error)
}

type gormQuizResultRepository struct{}

func NewGormQuizResultRepository() QuizResultRepository {
	return &gormQuizResultRepository{}
}

// Upsert は複合一意キー衝突時に既存行を新しい提出内容で上書きします
func (r *gormQuizResultRepository) Upsert(ctx context.Context, tx *gorm.DB, result *model.QuizResult) error {
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "roadmap_id"}, {Name: "node_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "total", "percentage", "passed", "questions", "answers", "updated_at",
		}),
	}).Create(result).Error
	if err != nil {
		return fmt.Errorf("gormQuizResultRepository.Upsert: %w", err)
	}
	return nil
}

func (r *gormQuizResultRepository) Find(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID, nodeID string) (*model.QuizResult, error) {
	var result model.QuizResult
	err := db.WithContext(ctx).
		Where("roadmap_id = ? AND node_id = ? AND user_id = ?", roadmapID, nodeID, userID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormQuizResultRepository.Find: %w", err)
	}
	return &result, nil
}

// PassedNodeIDs は合格済みノードIDの集合を返します。進捗照合とクイズ解放判定で使用
func (r *gormQuizResultRepository) PassedNodeIDs(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID) (map[string]bool, error) {
	var nodeIDs []string
	err := db.WithContext(ctx).
		Model(&model.QuizResult{}).
		Where("roadmap_id = ? AND user_id = ? AND passed = ?", roadmapID, userID, true).
		Pluck("node_id", &nodeIDs).Error
	if err != nil {
		return nil, fmt.Errorf("gormQuizResultRepository.PassedNodeIDs: %w", err)
	}
	passed := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		passed[id] = true
	}
	return passed, nil
}
