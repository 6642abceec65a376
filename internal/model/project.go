// internal/model/project.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project はロードマップを束ねる学習プロジェクトを表します
type Project struct {
	ProjectID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"project_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"` // 論理削除用

	// 関連 (Preload用)
	Roadmaps []Roadmap `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// プロジェクト作成リクエストDTO
type PostProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// プロジェクト更新リクエストDTO
type PutProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}
