package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 各实体网关的集合，共享同一个 *gorm.DB（或同一个数据库事务）
type Store struct {
	db *gorm.DB

	Accounts       *AccountRepository
	Categories     *CategoryRepository
	Transactions   *TransactionRepository
	Adjustments    *AdjustmentRepository
	Users          *UserRepository
	PasswordResets *PasswordResetRepository
}

// NewStore 创建网关集合
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Accounts:       &AccountRepository{db: db},
		Categories:     &CategoryRepository{db: db},
		Transactions:   &TransactionRepository{db: db},
		Adjustments:    &AdjustmentRepository{db: db},
		Users:          &UserRepository{db: db},
		PasswordResets: &PasswordResetRepository{db: db},
	}
}

// DB 底层连接
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 在同一个数据库事务中执行 fn；fn 返回错误时整体回滚，错误原样返回
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(NewStore(tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return wrap(err)
}
