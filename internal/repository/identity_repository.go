// internal/repository/identity_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_roadmap_keep/internal/model"

	"gorm.io/gorm"
)

type IdentityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, identity *model.Identity) error
	FindByProvider(ctx context.Context, db *gorm.DB, provider, providerID string) (*model.Identity, error)
	UpdatePasswordHash(ctx context.Context, tx *gorm.DB, identityID uint, passwordHash string) error
}

type gormIdentityRepository struct{}

func NewGormIdentityRepository() IdentityRepository {
	return &gormIdentityRepository{}
}

func (r *gormIdentityRepository) Create(ctx context.Context, tx *gorm.DB, identity *model.Identity) error {
	result := tx.WithContext(ctx).Create(identity)
	if result.Error != nil {
		if isUniqueViolation(result.Error) || errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		return fmt.Errorf("gormIdentityRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormIdentityRepository) FindByProvider(ctx context.Context, db *gorm.DB, provider, providerID string) (*model.Identity, error) {
	var identity model.Identity
	result := db.WithContext(ctx).
		Where("auth_provider = ? AND provider_id = ?", provider, providerID).
		First(&identity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormIdentityRepository.FindByProvider: %w", result.Error)
	}
	return &identity, nil
}

func (r *gormIdentityRepository) UpdatePasswordHash(ctx context.Context, tx *gorm.DB, identityID uint, passwordHash string) error {
	result := tx.WithContext(ctx).Model(&model.Identity{}).
		Where("id = ?", identityID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("gormIdentityRepository.UpdatePasswordHash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
