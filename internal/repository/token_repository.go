// internal/repository/token_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_roadmap_keep/internal/model"

	"gorm.io/gorm"
)

type TokenRepository interface {
	SaveVerificationToken(ctx context.Context, tx *gorm.DB, token *model.UserVerificationToken) error
	FindVerificationToken(ctx context.Context, db *gorm.DB, token string) (*model.UserVerificationToken, error)
	DeleteVerificationToken(ctx context.Context, tx *gorm.DB, token string) error

	SavePasswordResetToken(ctx context.Context, tx *gorm.DB, token *model.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, db *gorm.DB, token string) (*model.PasswordResetToken, error)
	DeletePasswordResetToken(ctx context.Context, tx *gorm.DB, token string) error
}

type gormTokenRepository struct{}

func NewGormTokenRepository() TokenRepository {
	return &gormTokenRepository{}
}

func (r *gormTokenRepository) SaveVerificationToken(ctx context.Context, tx *gorm.DB, token *model.UserVerificationToken) error {
	if err := tx.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("gormTokenRepository.SaveVerificationToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) FindVerificationToken(ctx context.Context, db *gorm.DB, token string) (*model.UserVerificationToken, error) {
	var t model.UserVerificationToken
	result := db.WithContext(ctx).Where("token = ?", token).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTokenRepository.FindVerificationToken: %w", result.Error)
	}
	return &t, nil
}

func (r *gormTokenRepository) DeleteVerificationToken(ctx context.Context, tx *gorm.DB, token string) error {
	if err := tx.WithContext(ctx).Delete(&model.UserVerificationToken{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("gormTokenRepository.DeleteVerificationToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) SavePasswordResetToken(ctx context.Context, tx *gorm.DB, token *model.PasswordResetToken) error {
	if err := tx.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("gormTokenRepository.SavePasswordResetToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) FindPasswordResetToken(ctx context.Context, db *gorm.DB, token string) (*model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	result := db.WithContext(ctx).Where("token = ?", token).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTokenRepository.FindPasswordResetToken: %w", result.Error)
	}
	return &t, nil
}

func (r *gormTokenRepository) DeletePasswordResetToken(ctx context.Context, tx *gorm.DB, token string) error {
	if err := tx.WithContext(ctx).Delete(&model.PasswordResetToken{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("gormTokenRepository.DeletePasswordResetToken: %w", err)
	}
	return nil
}
