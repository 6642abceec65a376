package service

import (
	"context"
	"errors"

	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectService は学習プロジェクトのCRUDを担当します
type ProjectService interface {
	CreateProject(ctx context.Context, userID uuid.UUID, req *model.PostProjectRequest) (*model.Project, error)
	GetProject(ctx context.Context, userID, projectID uuid.UUID) (*model.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	UpdateProject(ctx context.Context, userID, projectID uuid.UUID, req *model.PutProjectRequest) (*model.Project, error)
	DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	projectRepo repository.ProjectRepository
}

func NewProjectService(db *gorm.DB, projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{db: db, projectRepo: projectRepo}
}

func (s *projectService) CreateProject(ctx context.Context, userID uuid.UUID, req *model.PostProjectRequest) (*model.Project, error) {
	logger := middleware.GetLogger(ctx)

	project := &model.Project{
		ProjectID:   uuid.New(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.Create(ctx, tx, project); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "プロジェクトの作成に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Project created", "project_id", project.ProjectID, "user_id", userID.String())
	return project, nil
}

func (s *projectService) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, s.db, userID, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	projects, err := s.projectRepo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "プロジェクト一覧の取得に失敗しました。", "", err)
	}
	return projects, nil
}

func (s *projectService) UpdateProject(ctx context.Context, userID, projectID uuid.UUID, req *model.PutProjectRequest) (*model.Project, error) {
	logger := middleware.GetLogger(ctx)
	var updated *model.Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.projectRepo.FindByID(ctx, tx, userID, projectID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}

		if req.Name != nil {
			project.Name = *req.Name
		}
		if req.Description != nil {
			project.Description = *req.Description
		}

		if err := s.projectRepo.Update(ctx, tx, project); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "プロジェクトの更新に失敗しました。", "", err)
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Project updated", "project_id", projectID.String())
	return updated, nil
}

func (s *projectService) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.Delete(ctx, tx, userID, projectID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "プロジェクトの削除に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Project deleted", "project_id", projectID.String())
	return nil
}
