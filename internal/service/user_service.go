package service

import (
	"context"
	"errors"
	"time"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService はプロフィール取得と学習アクティビティの記録を担当します
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	RecordActivity(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type userService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository) UserService {
	return &userService{db: db, userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return user, nil
}

// RecordActivity は学習アクティビティ発生時にストリークを更新します。
// クイズ提出などの学習操作から呼ばれる
func (s *userService) RecordActivity(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var updated *model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}

		applyStreak(user, time.Now())

		if err := s.userRepo.Save(ctx, tx, user); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アクティビティの記録に失敗しました。", "", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Activity recorded", "user_id", userID.String(), "streak", updated.Streak)
	return updated, nil
}

// applyStreak はストリークを更新します。
// 比較は日付単位 (深夜0時で正規化)、LastActiveAt の保存は生のタイムスタンプのまま
func applyStreak(user *model.User, now time.Time) {
	today := midnight(now)

	switch {
	case user.LastActiveAt == nil:
		user.Streak = 1
	case midnight(*user.LastActiveAt).Equal(today):
		// 同日内の再アクティビティではストリークを動かさない
	case midnight(*user.LastActiveAt).Equal(today.AddDate(0, 0, -1)):
		user.Streak++
	default:
		user.Streak = 1
	}

	if user.Streak > user.LongestStreak {
		user.LongestStreak = user.Streak
	}
	user.LastActiveAt = &now
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// levelForXP は累計XPからレベルを算出します
func levelForXP(xp int) int {
	return xp/config.XPPerLevel + 1
}
