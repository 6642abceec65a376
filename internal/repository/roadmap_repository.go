//go:generate mockery --name RoadmapRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoadmapRepository インターフェース
// ロードマップはプロジェクト経由でユーザーに属するため、
// 取得系は常にprojectsをJOINして所有者を検証します
type RoadmapRepository interface {
	Create(ctx context.Context, tx *gorm.DB, roadmap *model.Roadmap) error
	FindByID(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID) (*model.Roadmap, error)
	FindByProjectID(ctx context.Context, db *gorm.DB, userID, projectID uuid.UUID) ([]model.Roadmap, error)
	Save(ctx context.Context, tx *gorm.DB, roadmap *model.Roadmap) error
	Delete(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) error
}

type gormRoadmapRepository struct{}

func NewGormRoadmapRepository() RoadmapRepository {
	return &gormRoadmapRepository{}
}

func (r *gormRoadmapRepository) Create(ctx context.Context, tx *gorm.DB, roadmap *model.Roadmap) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(roadmap)
	if result.Error != nil {
		logger.Error("Error creating roadmap in DB",
			"error", result.Error,
			"project_id", roadmap.ProjectID.String(),
		)
		return fmt.Errorf("gormRoadmapRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormRoadmapRepository) FindByID(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID) (*model.Roadmap, error) {
	var roadmap model.Roadmap
	result := db.WithContext(ctx).
		Joins("JOIN projects ON projects.project_id = roadmaps.project_id").
		Where("roadmaps.roadmap_id = ? AND projects.user_id = ? AND projects.deleted_at IS NULL", roadmapID, userID).
		First(&roadmap)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormRoadmapRepository.FindByID: %w", result.Error)
	}
	return &roadmap, nil
}

func (r *gormRoadmapRepository) FindByProjectID(ctx context.Context, db *gorm.DB, userID, projectID uuid.UUID) ([]model.Roadmap, error) {
	var roadmaps []model.Roadmap
	result := db.WithContext(ctx).
		Joins("JOIN projects ON projects.project_id = roadmaps.project_id").
		Where("roadmaps.project_id = ? AND projects.user_id = ? AND projects.deleted_at IS NULL", projectID, userID).
		Order("roadmaps.created_at DESC").
		Find(&roadmaps)
	if result.Error != nil {
		return nil, fmt.Errorf("gormRoadmapRepository.FindByProjectID: %w", result.Error)
	}
	return roadmaps, nil
}

// Save はノード・エッジのJSONを含めたロードマップ全体を上書き保存します
func (r *gormRoadmapRepository) Save(ctx context.Context, tx *gorm.DB, roadmap *model.Roadmap) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(roadmap)
	if result.Error != nil {
		logger.Error("Error saving roadmap in DB",
			"error", result.Error,
			"roadmap_id", roadmap.RoadmapID.String(),
		)
		return fmt.Errorf("gormRoadmapRepository.Save: %w", result.Error)
	}
	return nil
}

func (r *gormRoadmapRepository) Delete(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) error {
	// 所有者チェック込みの削除。サブクエリで所有プロジェクト配下に限定する
	result := tx.WithContext(ctx).
		Where("roadmap_id = ? AND project_id IN (?)",
			roadmapID,
			tx.Model(&model.Project{}).Select("project_id").Where("user_id = ?", userID),
		).
		Delete(&model.Roadmap{})
	if result.Error != nil {
		return fmt.Errorf("gormRoadmapRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
