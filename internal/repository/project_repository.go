//go:generate mockery --name ProjectRepository --output ./mocks --outpkg mocks --case=underscore
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

// ProjectRepository インターフェース
type ProjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, project *model.Project) error
	FindByID(ctx context.Context, db *gorm.DB, userID, projectID uuid.UUID) (*model.Project, error)
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, tx *gorm.DB, project *model.Project) error
	Delete(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) error
}

type gormProjectRepository struct{}

func NewGormProjectRepository() ProjectRepository {
	return &gormProjectRepository{}
}

func (r *gormProjectRepository) Create(ctx context.Context, tx *gorm.DB, project *model.Project) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(project)
	if result.Error != nil {
		logger.Error("Error creating project in DB",
			"error", result.Error,
			"user_id", project.UserID.String(),
		)
		return fmt.Errorf("gormProjectRepository.Create: %w", result.Error)
	}
	return nil
}

// FindByID は所有者チェックを兼ねるため、常にuser_idで絞り込みます
func (r *gormProjectRepository) FindByID(ctx context.Context, db *gorm.DB, userID, projectID uuid.UUID) (*model.Project, error) {
	var project model.Project
	result := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&project)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProjectRepository.FindByID: %w", result.Error)
	}
	return &project, nil
}

func (r *gormProjectRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProjectRepository.FindByUserID: %w", result.Error)
	}
	return projects, nil
}

func (r *gormProjectRepository) Update(ctx context.Context, tx *gorm.DB, project *model.Project) error {
	result := tx.WithContext(ctx).Save(project)
	if result.Error != nil {
		return fmt.Errorf("gormProjectRepository.Update: %w", result.Error)
	}
	return nil
}

func (r *gormProjectRepository) Delete(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) error {
	result := tx.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.Project{})
	if result.Error != nil {
		return fmt.Errorf("gormProjectRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
