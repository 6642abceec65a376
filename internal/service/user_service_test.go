// internal/service/user_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 ---
func setupTestDBUser(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:usersvc?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("failed to connect database for testing: " + err.Error())
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		panic("failed to migrate database for testing: " + err.Error())
	}
	return db
}

func Test_applyStreak(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)
	sameDayMorning := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		lastActiveAt      *time.Time
		streak            int
		longestStreak     int
		wantStreak        int
		wantLongestStreak int
	}{
		{
			name:              "初回アクティビティでストリーク1",
			lastActiveAt:      nil,
			streak:            0,
			longestStreak:     0,
			wantStreak:        1,
			wantLongestStreak: 1,
		},
		{
			name:              "前日のアクティビティでストリーク継続",
			lastActiveAt:      &yesterday,
			streak:            4,
			longestStreak:     4,
			wantStreak:        5,
			wantLongestStreak: 5,
		},
		{
			name:              "同日内の再アクティビティではストリーク不変",
			lastActiveAt:      &sameDayMorning,
			streak:            4,
			longestStreak:     7,
			wantStreak:        4,
			wantLongestStreak: 7,
		},
		{
			name:              "3日空くとストリークは1にリセット",
			lastActiveAt:      &threeDaysAgo,
			streak:            10,
			longestStreak:     10,
			wantStreak:        1,
			wantLongestStreak: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &model.User{
				Streak:        tt.streak,
				LongestStreak: tt.longestStreak,
				LastActiveAt:  tt.lastActiveAt,
			}

			applyStreak(user, now)

			assert.Equal(t, tt.wantStreak, user.Streak)
			assert.Equal(t, tt.wantLongestStreak, user.LongestStreak)
			// 保存されるのは日付正規化前の生のタイムスタンプ
			require.NotNil(t, user.LastActiveAt)
			assert.Equal(t, now, *user.LastActiveAt)
		})
	}
}

func Test_applyStreak_MidnightBoundary(t *testing.T) {
	// 前日23:59のアクティビティは「昨日」として扱われ、継続になる
	lastNight := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	justAfterMidnight := time.Date(2026, 8, 29, 0, 1, 0, 0, time.UTC)

	user := &model.User{Streak: 2, LongestStreak: 2, LastActiveAt: &lastNight}
	applyStreak(user, justAfterMidnight)

	assert.Equal(t, 3, user.Streak)
}

func Test_levelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{100, 1},
		{499, 1},
		{500, 2},
		{999, 2},
		{1000, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func Test_userService_RecordActivity(t *testing.T) {
	ctx := context.Background()
	db := setupTestDBUser(t)
	svc := NewUserService(db, repository.NewGormUserRepository())

	t.Run("正常系: 初回アクティビティが記録される", func(t *testing.T) {
		user := &model.User{
			UserID:   uuid.New(),
			Name:     "taro",
			Email:    "taro@example.com",
			IsActive: true,
			Level:    1,
		}
		require.NoError(t, db.Create(user).Error)

		updated, err := svc.RecordActivity(ctx, user.UserID)

		require.NoError(t, err)
		assert.Equal(t, 1, updated.Streak)
		assert.Equal(t, 1, updated.LongestStreak)
		require.NotNil(t, updated.LastActiveAt)
		assert.WithinDuration(t, time.Now(), *updated.LastActiveAt, 5*time.Second)

		// DBにも反映されていること
		var stored model.User
		require.NoError(t, db.Where("user_id = ?", user.UserID).First(&stored).Error)
		assert.Equal(t, 1, stored.Streak)
	})

	t.Run("異常系: 存在しないユーザーはNotFound", func(t *testing.T) {
		_, err := svc.RecordActivity(ctx, uuid.New())

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_userService_GetProfile(t *testing.T) {
	ctx := context.Background()
	db := setupTestDBUser(t)
	svc := NewUserService(db, repository.NewGormUserRepository())

	t.Run("正常系: プロフィールを取得できる", func(t *testing.T) {
		user := &model.User{
			UserID:   uuid.New(),
			Name:     "hanako",
			Email:    "hanako@example.com",
			IsActive: true,
			XP:       700,
			Level:    2,
		}
		require.NoError(t, db.Create(user).Error)

		got, err := svc.GetProfile(ctx, user.UserID)

		require.NoError(t, err)
		assert.Equal(t, "hanako", got.Name)
		assert.Equal(t, 700, got.XP)
		assert.Equal(t, 2, got.Level)
	})

	t.Run("異常系: 存在しないユーザーはNotFound", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, uuid.New())

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
