// Package repository 实体存取网关：按 user_id 隔离的账户、类别、收支记录，
// 以及全局只读的默认类别。
package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 指定归属下不存在该记录
	ErrNotFound = errors.New("not found")
	// ErrSchemaMismatch 存储中的枚举字段不是已知取值
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrRemoteUnavailable 与存储通信失败
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrVersionConflict 条件更新时版本已变化
	ErrVersionConflict = errors.New("version conflict")
	// ErrAccountInUse 账户仍被收支记录引用
	ErrAccountInUse = errors.New("account in use")
)

// wrap 将 gorm / 驱动错误归入统一的错误类别
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSchemaMismatch),
		errors.Is(err, ErrRemoteUnavailable),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrAccountInUse),
		errors.Is(err, models.ErrInvalid),
		errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
}

func schemaMismatch(entity, id, field string, value any) error {
	return fmt.Errorf("%w: %s %s has unknown %s %q", ErrSchemaMismatch, entity, id, field, value)
}
