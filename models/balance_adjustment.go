package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AdjustmentPending = "pending"
	AdjustmentApplied = "applied"
)

// BalanceAdjustment 待应用的余额变动标记（journaled 模式）
// 先写记录，再写标记，再改余额，最后标记为 applied；中途失败可由 reconcile 重放。
type BalanceAdjustment struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	UserID        string          `json:"user_id" gorm:"size:36;index;not null"`
	AccountID     string          `json:"account_id" gorm:"size:36;not null"`
	TransactionID string          `json:"transaction_id" gorm:"size:36;index"`
	Delta         decimal.Decimal `json:"delta" gorm:"type:decimal(15,2);not null"`
	Status        string          `json:"status" gorm:"size:10;index;not null;default:pending"`
	Attempts      int             `json:"attempts" gorm:"not null;default:0"`
	LastError     string          `json:"last_error" gorm:"size:255"`
	CreatedAt     time.Time       `json:"created_at"`
	AppliedAt     *time.Time      `json:"applied_at"`
}

func (BalanceAdjustment) TableName() string {
	return "balance_adjustments"
}

func (b *BalanceAdjustment) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
