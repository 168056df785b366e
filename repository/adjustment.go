package repository

import (
	"context"
	"time"
	"unicode/utf8"

	"fintrack/models"

	"gorm.io/gorm"
)

// AdjustmentRepository 余额变动标记（journaled 模式的补偿日志）
type AdjustmentRepository struct {
	db *gorm.DB
}

// Create 写入待应用标记
func (r *AdjustmentRepository) Create(ctx context.Context, adj *models.BalanceAdjustment) error {
	adj.Status = models.AdjustmentPending
	return wrap(r.db.WithContext(ctx).Create(adj).Error)
}

// MarkApplied 标记为已应用；只有 pending 状态的标记会被更新
func (r *AdjustmentRepository) MarkApplied(ctx context.Context, id string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.BalanceAdjustment{}).
		Where("id = ? AND status = ?", id, models.AdjustmentPending).
		Updates(map[string]any{"status": models.AdjustmentApplied, "applied_at": &now})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFailure 记录一次应用失败
func (r *AdjustmentRepository) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := truncateRunes(cause.Error(), lastErrorSize)
	return wrap(r.db.WithContext(ctx).Model(&models.BalanceAdjustment{}).
		Where("id = ?", id).
		Updates(map[string]any{"attempts": gorm.Expr("attempts + 1"), "last_error": msg}).Error)
}

// ListPending 待应用标记，按创建顺序；ownerID 为空时返回所有用户的
func (r *AdjustmentRepository) ListPending(ctx context.Context, ownerID string) ([]models.BalanceAdjustment, error) {
	q := r.db.WithContext(ctx).Where("status = ?", models.AdjustmentPending)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	var adjs []models.BalanceAdjustment
	if err := q.Order("created_at, id").Find(&adjs).Error; err != nil {
		return nil, wrap(err)
	}
	return adjs, nil
}

// lastErrorSize 与 last_error 列宽一致（按字符计）
const lastErrorSize = 255

// truncateRunes 按字符截断，避免切断多字节字符
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
