package repository

import (
	"context"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountRepository 账户网关
type AccountRepository struct {
	db *gorm.DB
}

func (r *AccountRepository) scoped(ctx context.Context, ownerID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ?", ownerID)
}

// List 返回用户的全部账户，按创建时间排序
func (r *AccountRepository) List(ctx context.Context, ownerID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.scoped(ctx, ownerID).Order("created_at, id").Find(&accounts).Error; err != nil {
		return nil, wrap(err)
	}
	for i := range accounts {
		if err := checkAccount(&accounts[i]); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Get 按 ID 获取账户
func (r *AccountRepository) Get(ctx context.Context, ownerID, id string) (*models.Account, error) {
	var account models.Account
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, wrap(err)
	}
	if err := checkAccount(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Create 创建账户，ID 由存储分配
func (r *AccountRepository) Create(ctx context.Context, ownerID string, account *models.Account) (string, error) {
	account.ID = ""
	account.UserID = ownerID
	account.Version = 0
	if err := account.Validate(); err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return "", wrap(err)
	}
	return account.ID, nil
}

// Update 合并给出的字段，未给出的字段保持不变
func (r *AccountRepository) Update(ctx context.Context, ownerID, id string, patch models.AccountPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := r.exists(ctx, ownerID, id); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	updates := map[string]any{"version": gorm.Expr("version + 1")}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Balance != nil {
		updates["balance"] = *patch.Balance
	}
	if patch.Currency != nil {
		updates["currency"] = *patch.Currency
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	res := r.scoped(ctx, ownerID).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetBalance 仅当版本号仍为 expectedVersion 时写入新余额
func (r *AccountRepository) CompareAndSetBalance(ctx context.Context, ownerID, id string, expectedVersion int64, balance decimal.Decimal) error {
	res := r.scoped(ctx, ownerID).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"balance": balance,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if err := r.exists(ctx, ownerID, id); err != nil {
		return err
	}
	return ErrVersionConflict
}

// Delete 删除账户；不存在时同样视为成功
func (r *AccountRepository) Delete(ctx context.Context, ownerID, id string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&models.Account{}).Error
	return wrap(err)
}

func (r *AccountRepository) exists(ctx context.Context, ownerID, id string) error {
	var count int64
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).Count(&count).Error; err != nil {
		return wrap(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func checkAccount(a *models.Account) error {
	if !a.Type.Valid() {
		return schemaMismatch("account", a.ID, "type", a.Type)
	}
	if !a.Currency.Valid() {
		return schemaMismatch("account", a.ID, "currency", a.Currency)
	}
	return nil
}
