package repository

import (
	"context"
	"time"

	"fintrack/models"

	"gorm.io/gorm"
)

// TransactionFilter 列表过滤条件，零值返回全部记录
type TransactionFilter struct {
	Type       models.EntryType
	AccountID  string
	CategoryID string
	From       *time.Time // 含
	To         *time.Time // 不含
	Limit      int
}

// TransactionRepository 收支记录网关
type TransactionRepository struct {
	db *gorm.DB
}

func (r *TransactionRepository) scoped(ctx context.Context, ownerID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID)
}

// List 按日期倒序返回记录
func (r *TransactionRepository) List(ctx context.Context, ownerID string, f TransactionFilter) ([]models.Transaction, error) {
	q := r.scoped(ctx, ownerID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var txs []models.Transaction
	if err := q.Order("date DESC, created_at DESC, id").Find(&txs).Error; err != nil {
		return nil, wrap(err)
	}
	for i := range txs {
		if err := checkTransaction(&txs[i]); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

// Get 按 ID 获取记录
func (r *TransactionRepository) Get(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, wrap(err)
	}
	if err := checkTransaction(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create 插入记录，ID 由存储分配；不触碰账户余额
func (r *TransactionRepository) Create(ctx context.Context, ownerID string, t *models.Transaction) (string, error) {
	t.ID = ""
	t.UserID = ownerID
	if err := t.Validate(); err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return "", wrap(err)
	}
	return t.ID, nil
}

// Update 合并给出的字段；不触碰账户余额
func (r *TransactionRepository) Update(ctx context.Context, ownerID, id string, patch models.TransactionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	var count int64
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).Count(&count).Error; err != nil {
		return wrap(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	if patch.Empty() {
		return nil
	}

	updates := map[string]any{}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.Currency != nil {
		updates["currency"] = *patch.Currency
	}
	if patch.Date != nil {
		updates["date"] = *patch.Date
	}
	if patch.CategoryID != nil {
		updates["category_id"] = *patch.CategoryID
	}
	if patch.AccountID != nil {
		updates["account_id"] = *patch.AccountID
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	return wrap(r.scoped(ctx, ownerID).Where("id = ?", id).Updates(updates).Error)
}

// Delete 删除记录；不存在时同样视为成功
func (r *TransactionRepository) Delete(ctx context.Context, ownerID, id string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&models.Transaction{}).Error
	return wrap(err)
}

// CountByAccount 引用该账户的记录数
func (r *TransactionRepository) CountByAccount(ctx context.Context, ownerID, accountID string) (int64, error) {
	var count int64
	if err := r.scoped(ctx, ownerID).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

// 早期版本的记录没有币种字段，读取时允许为空
func checkTransaction(t *models.Transaction) error {
	if !t.Type.Valid() {
		return schemaMismatch("transaction", t.ID, "type", t.Type)
	}
	if t.Currency != "" && !t.Currency.Valid() {
		return schemaMismatch("transaction", t.ID, "currency", t.Currency)
	}
	return nil
}
