package repository

import (
	"context"
	"time"

	"fintrack/models"

	"gorm.io/gorm"
)

// UserRepository 用户存取
type UserRepository struct {
	db *gorm.DB
}

// GetByID 按 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// GetByEmail 按邮箱获取用户，邮箱已规范化为小写
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// GetByProvider 按联合登录的外部用户 ID 获取用户
func (r *UserRepository) GetByProvider(ctx context.Context, provider, uid string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_uid = ?", provider, uid).
		First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	return wrap(r.db.WithContext(ctx).Create(u).Error)
}

// UpdatePassword 更新密码摘要
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PasswordResetRepository 密码重置码存取
type PasswordResetRepository struct {
	db *gorm.DB
}

// Create 保存重置码，同时作废该用户此前未使用的重置码
func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	now := time.Now()
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used_at IS NULL", reset.UserID).
			Update("used_at", &now).Error; err != nil {
			return err
		}
		return tx.Create(reset).Error
	}))
}

// GetByHash 按重置码摘要查找
func (r *PasswordResetRepository) GetByHash(ctx context.Context, hash string) (*models.PasswordReset, error) {
	var p models.PasswordReset
	if err := r.db.WithContext(ctx).Where("code_hash = ?", hash).First(&p).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// MarkUsed 标记为已使用；已被使用时返回 ErrNotFound，保证单次有效
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", &now)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
