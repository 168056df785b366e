package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// UserStatusActive 正常：可登录
	UserStatusActive = "active"
	// UserStatusDisabled 已停用：不可登录
	UserStatusDisabled = "disabled"
)

const (
	// ProviderPassword 邮箱 + 密码
	ProviderPassword = "password"
	// ProviderGoogle Google 联合登录
	ProviderGoogle = "google"
)

// User 用户模型，ID 即所有实体的归属键
type User struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string         `json:"-" gorm:"size:255"`
	DisplayName  string         `json:"display_name" gorm:"size:100"`
	Provider     string         `json:"provider" gorm:"size:20;not null;default:password"`
	ProviderUID  *string        `json:"-" gorm:"size:64;uniqueIndex"` // 联合登录的外部用户ID，NULL 表示未绑定
	Status       string         `json:"status" gorm:"size:20;default:active;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Active 是否可登录
func (u *User) Active() bool {
	return u.Status == "" || u.Status == UserStatusActive
}
