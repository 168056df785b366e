package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account 资金账户（现金 / 银行）
// Balance 只应由记账流程修改，编辑账户时允许整体覆盖。
type Account struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	UserID    string          `json:"-" gorm:"size:36;index;not null"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(15,2);not null"`
	Currency  Currency        `json:"currency" gorm:"size:3;not null"`
	Type      AccountType     `json:"type" gorm:"size:10;not null"`
	Version   int64           `json:"version" gorm:"not null;default:1"` // 每次写入 +1，用于乐观并发控制
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate 由存储层分配 ID
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	return nil
}

// Validate 构造校验
func (a *Account) Validate() error {
	if err := requireName(a.Name); err != nil {
		return err
	}
	if err := requireCents("balance", a.Balance); err != nil {
		return err
	}
	if !a.Currency.Valid() {
		return invalid("currency", "must be one of PLN, EUR, USD")
	}
	if !a.Type.Valid() {
		return invalid("type", "must be cash or bank")
	}
	return nil
}

// AccountPatch 账户局部更新，nil 字段保持不变
type AccountPatch struct {
	Name     *string
	Balance  *decimal.Decimal
	Currency *Currency
	Type     *AccountType
}

// Validate 只校验给出的字段
func (p AccountPatch) Validate() error {
	if p.Name != nil {
		if err := requireName(*p.Name); err != nil {
			return err
		}
	}
	if p.Balance != nil {
		if err := requireCents("balance", *p.Balance); err != nil {
			return err
		}
	}
	if p.Currency != nil && !p.Currency.Valid() {
		return invalid("currency", "must be one of PLN, EUR, USD")
	}
	if p.Type != nil && !p.Type.Valid() {
		return invalid("type", "must be cash or bank")
	}
	return nil
}

// Empty 是否没有任何字段
func (p AccountPatch) Empty() bool {
	return p.Name == nil && p.Balance == nil && p.Currency == nil && p.Type == nil
}
