package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction 收支记录
// Amount 为非负金额，符号由 Type 决定。
type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	UserID      string          `json:"-" gorm:"size:36;index;not null"`
	Type        EntryType       `json:"type" gorm:"size:10;not null"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Currency    Currency        `json:"currency" gorm:"size:3"`
	Date        time.Time       `json:"date" gorm:"index;not null"`
	CategoryID  string          `json:"category" gorm:"column:category_id;size:36;index"`
	AccountID   string          `json:"account" gorm:"column:account_id;size:36;index;not null"`
	Description string          `json:"description,omitempty" gorm:"size:255"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Validate 构造校验；Currency 为空表示沿用账户币种
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return invalid("type", "must be income or expense")
	}
	if err := requireName(t.Name); err != nil {
		return err
	}
	if err := requireNonNegative("amount", t.Amount); err != nil {
		return err
	}
	if err := requireCents("amount", t.Amount); err != nil {
		return err
	}
	if t.Currency != "" && !t.Currency.Valid() {
		return invalid("currency", "must be one of PLN, EUR, USD")
	}
	if t.Date.IsZero() {
		return invalid("date", "is required")
	}
	if t.AccountID == "" {
		return invalid("account", "is required")
	}
	return nil
}

// SignedAmount 收入为正、支出为负
func (t *Transaction) SignedAmount() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// SignedAmount 按收支类型给金额加符号
func SignedAmount(typ EntryType, amount decimal.Decimal) decimal.Decimal {
	if typ == EntryTypeIncome {
		return amount
	}
	return amount.Neg()
}

// TransactionPatch 记录局部更新
type TransactionPatch struct {
	Type        *EntryType
	Name        *string
	Amount      *decimal.Decimal
	Currency    *Currency
	Date        *time.Time
	CategoryID  *string
	AccountID   *string
	Description *string
}

func (p TransactionPatch) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return invalid("type", "must be income or expense")
	}
	if p.Name != nil {
		if err := requireName(*p.Name); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := requireNonNegative("amount", *p.Amount); err != nil {
			return err
		}
		if err := requireCents("amount", *p.Amount); err != nil {
			return err
		}
	}
	if p.Currency != nil && !p.Currency.Valid() {
		return invalid("currency", "must be one of PLN, EUR, USD")
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", "is required")
	}
	if p.AccountID != nil && *p.AccountID == "" {
		return invalid("account", "is required")
	}
	return nil
}

func (p TransactionPatch) Empty() bool {
	return p.Type == nil && p.Name == nil && p.Amount == nil && p.Currency == nil &&
		p.Date == nil && p.CategoryID == nil && p.AccountID == nil && p.Description == nil
}

// TouchesBalance 是否修改了影响账户余额的字段
func (p TransactionPatch) TouchesBalance() bool {
	return p.Type != nil || p.Amount != nil || p.AccountID != nil
}

// Apply 将补丁应用到副本上，返回更新后的记录
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}
