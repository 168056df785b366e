package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordResetTTL 重置码有效期
const PasswordResetTTL = 30 * time.Minute

// PasswordReset 密码重置码，只保存 SHA-256 摘要，明文仅出现在邮件链接里
type PasswordReset struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	UserID    string     `json:"user_id" gorm:"size:36;index;not null"`
	CodeHash  string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName 设置表名
func (PasswordReset) TableName() string {
	return "password_resets"
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// GenerateResetCode 生成随机重置码，返回明文与摘要
func GenerateResetCode() (code, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	code = hex.EncodeToString(buf)
	return code, HashResetCode(code), nil
}

// HashResetCode 计算重置码摘要
func HashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// IsExpired 检查是否过期
func (p *PasswordReset) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// IsValid 未使用且未过期
func (p *PasswordReset) IsValid(now time.Time) bool {
	return p.UsedAt == nil && !p.IsExpired(now)
}
