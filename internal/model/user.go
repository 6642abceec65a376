// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User はアプリケーション利用者の基本情報と学習進捗の集計値を保持します
type User struct {
	UserID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"unique;not null" json:"email"`
	IsActive      bool           `gorm:"default:false" json:"is_active"`
	XP            int            `gorm:"not null;default:0" json:"xp"`
	Level         int            `gorm:"not null;default:1" json:"level"`
	Streak        int            `gorm:"not null;default:0" json:"streak"`
	LongestStreak int            `gorm:"not null;default:0" json:"longest_streak"`
	LastActiveAt  *time.Time     `json:"last_active_at"` // 比較は日付正規化、保存は生のタイムスタンプ
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// GORM用のリレーション (JSONには含めない)
	Identities []Identity `gorm:"foreignKey:UserID" json:"-"`
	Projects   []Project  `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// RegisterRequest は新規登録APIのリクエストボディの構造体 (DTO)
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserResponse はクライアントに返すユーザー情報の構造体
type UserResponse struct {
	UserID        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	IsActive      bool       `json:"is_active"`
	XP            int        `json:"xp"`
	Level         int        `json:"level"`
	Streak        int        `json:"streak"`
	LongestStreak int        `json:"longest_streak"`
	LastActiveAt  *time.Time `json:"last_active_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewUserResponse は User から UserResponse を組み立てます
func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		UserID:        u.UserID,
		Name:          u.Name,
		Email:         u.Email,
		IsActive:      u.IsActive,
		XP:            u.XP,
		Level:         u.Level,
		Streak:        u.Streak,
		LongestStreak: u.LongestStreak,
		LastActiveAt:  u.LastActiveAt,
		CreatedAt:     u.CreatedAt,
	}
}
