package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

// UserRepository reads and writes users. Soft-deleted users are never returned.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	SoftDelete(ctx context.Context, id uint, actorID *uint) error
}

// GormUserRepository implements UserRepository on top of gorm
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a gorm backed user repository
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByEmail finds the live user with the given (normalized) email
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get_by_email")()

	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err, "get user by email")
	}
	return &user, nil
}

// GetByID finds the live user with the given id
func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")()

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

// EmailTaken reports whether any row, soft-deleted ones included, holds email.
// The unique index covers tombstoned rows too.
func (r *GormUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	defer prometheus.TrackDBOperation("user_email_taken")()

	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.User{}).
		Where("email = ?", model.NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// Create inserts user in its own transaction
func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("user_create")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "create user")
		}
		return nil
	})
}

// UpdateLastLogin stamps last_login without touching updated_at
func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	defer prometheus.TrackDBOperation("user_update_last_login")()

	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at and deleted_by_id on the user
func (r *GormUserRepository) SoftDelete(ctx context.Context, id uint, actorID *uint) error {
	defer prometheus.TrackDBOperation("user_soft_delete")()

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"deleted_at":    time.Now(),
		"deleted_by_id": actorID,
		"is_active":     false,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
