package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/config"
	"fintrack/models"
	"fintrack/repository"

	"github.com/shopspring/decimal"
)

// BalanceNotUpdatedError 记录已保存，但账户余额未能调整
type BalanceNotUpdatedError struct {
	TransactionID string
	AccountID     string
	Err           error
}

func (e *BalanceNotUpdatedError) Error() string {
	return fmt.Sprintf("transaction %s saved but balance of account %s not updated: %v", e.TransactionID, e.AccountID, e.Err)
}

func (e *BalanceNotUpdatedError) Unwrap() error {
	return e.Err
}

// balanceDelta 对单个账户的余额变动
type balanceDelta struct {
	AccountID string
	Delta     decimal.Decimal
}

// errAlreadyApplied 标记已被其他流程应用
var errAlreadyApplied = errors.New("adjustment already applied")

// LedgerService 收支记录与账户余额的联动
//
// 三种一致性模式：
//   - atomic: 写记录与改余额在同一个数据库事务中，版本冲突时整体重试
//   - journaled: 写记录与待应用标记同事务提交，再应用标记；失败的标记由 Reconcile 重放
//   - sequential: 先写记录再改余额，中途失败返回 BalanceNotUpdatedError，不做补偿
type LedgerService struct {
	store *repository.Store
	cfg   config.LedgerConfig
	log   *slog.Logger
}

// NewLedgerService 创建记账服务
func NewLedgerService(store *repository.Store, cfg config.LedgerConfig) *LedgerService {
	return &LedgerService{
		store: store,
		cfg:   cfg,
		log:   slog.Default().With("component", "ledger", "consistency", cfg.Consistency),
	}
}

func (s *LedgerService) maxRetries() int {
	if s.cfg.MaxRetries < 1 {
		return 1
	}
	return s.cfg.MaxRetries
}

// CreateTransaction 保存记录并按收支类型调整所属账户余额
func (s *LedgerService) CreateTransaction(ctx context.Context, ownerID string, t *models.Transaction) (string, error) {
	if err := s.prepare(ctx, ownerID, t); err != nil {
		return "", err
	}
	deltas := []balanceDelta{{AccountID: t.AccountID, Delta: t.SignedAmount()}}
	write := func(st *repository.Store) (string, error) {
		return st.Transactions.Create(ctx, ownerID, t)
	}

	id, err := s.commit(ctx, ownerID, "create_transaction", write, deltas, false)
	if err != nil {
		return id, err
	}
	s.log.Info("transaction created", "operation", "create_transaction",
		"user_id", ownerID, "transaction_id", id, "account_id", t.AccountID, "delta", t.SignedAmount().String())
	return id, nil
}

// UpdateTransaction 更新记录；仅在 symmetric_edits 开启且改动了类型、金额或账户时调整余额
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	old, err := s.store.Transactions.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	updated := patch.Apply(*old)
	if patch.AccountID != nil || patch.Currency != nil || patch.CategoryID != nil || patch.Type != nil {
		if err := s.checkReferences(ctx, ownerID, &updated, patch.Currency != nil); err != nil {
			return err
		}
		// 更换账户时币种随新账户
		if patch.AccountID != nil && patch.Currency == nil && updated.Currency != old.Currency {
			patch.Currency = &updated.Currency
		}
	}

	write := func(st *repository.Store) (string, error) {
		return id, st.Transactions.Update(ctx, ownerID, id, patch)
	}
	if !s.cfg.SymmetricEdits || !patch.TouchesBalance() {
		_, err := write(s.store)
		return err
	}

	var deltas []balanceDelta
	if old.AccountID == updated.AccountID {
		deltas = []balanceDelta{{AccountID: old.AccountID, Delta: updated.SignedAmount().Sub(old.SignedAmount())}}
	} else {
		deltas = []balanceDelta{
			{AccountID: old.AccountID, Delta: old.SignedAmount().Neg()},
			{AccountID: updated.AccountID, Delta: updated.SignedAmount()},
		}
	}
	_, err = s.commit(ctx, ownerID, "update_transaction", write, deltas, true)
	return err
}

// DeleteTransaction 删除记录；仅在 symmetric_edits 开启时回退余额
func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if !s.cfg.SymmetricEdits {
		return s.store.Transactions.Delete(ctx, ownerID, id)
	}
	old, err := s.store.Transactions.Get(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	write := func(st *repository.Store) (string, error) {
		return id, st.Transactions.Delete(ctx, ownerID, id)
	}
	deltas := []balanceDelta{{AccountID: old.AccountID, Delta: old.SignedAmount().Neg()}}
	_, err = s.commit(ctx, ownerID, "delete_transaction", write, deltas, true)
	return err
}

// DeleteAccount 删除账户；block 策略下仍被记录引用时返回 ErrAccountInUse
func (s *LedgerService) DeleteAccount(ctx context.Context, ownerID, id string) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if s.cfg.AccountDeletePolicy != config.DeletePolicyAllow {
			n, err := tx.Transactions.CountByAccount(ctx, ownerID, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %d transactions reference account %s", repository.ErrAccountInUse, n, id)
			}
		}
		return tx.Accounts.Delete(ctx, ownerID, id)
	})
}

// prepare 写入前校验：字段、账户与类别引用、币种
func (s *LedgerService) prepare(ctx context.Context, ownerID string, t *models.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.checkReferences(ctx, ownerID, t, t.Currency != "")
}

func (s *LedgerService) checkReferences(ctx context.Context, ownerID string, t *models.Transaction, explicitCurrency bool) error {
	account, err := s.store.Accounts.Get(ctx, ownerID, t.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.ValidationError{Field: "account", Reason: "unknown account " + t.AccountID}
	}
	if err != nil {
		return err
	}
	if !explicitCurrency {
		t.Currency = account.Currency
	} else if t.Currency != account.Currency {
		return &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("must match account currency %s", account.Currency)}
	}

	if t.CategoryID == "" {
		return nil
	}
	category, err := s.store.Categories.Resolve(ctx, ownerID, t.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.ValidationError{Field: "category", Reason: "unknown category " + t.CategoryID}
	}
	if err != nil {
		return err
	}
	if category.Type != t.Type {
		return &models.ValidationError{Field: "category", Reason: fmt.Sprintf("category type %s does not match %s", category.Type, t.Type)}
	}
	return nil
}

// commit 按配置的一致性模式执行写入与余额调整；skipMissing 为 true 时忽略已不存在的账户
func (s *LedgerService) commit(ctx context.Context, ownerID, op string, write func(*repository.Store) (string, error), deltas []balanceDelta, skipMissing bool) (string, error) {
	switch s.cfg.Consistency {
	case config.ConsistencySequential:
		return s.commitSequential(ctx, ownerID, op, write, deltas, skipMissing)
	case config.ConsistencyJournaled:
		return s.commitJournaled(ctx, ownerID, op, write, deltas, skipMissing)
	default:
		return s.commitAtomic(ctx, ownerID, op, write, deltas, skipMissing)
	}
}

func (s *LedgerService) commitAtomic(ctx context.Context, ownerID, op string, write func(*repository.Store) (string, error), deltas []balanceDelta, skipMissing bool) (string, error) {
	var id string
	var err error
	for attempt := 1; attempt <= s.maxRetries(); attempt++ {
		err = s.store.Transaction(ctx, func(tx *repository.Store) error {
			var werr error
			if id, werr = write(tx); werr != nil {
				return werr
			}
			for _, d := range deltas {
				if err := adjustBalance(ctx, tx, ownerID, d); err != nil {
					if skipMissing && errors.Is(err, repository.ErrNotFound) {
						s.log.Warn("account missing, balance not adjusted", "operation", op, "user_id", ownerID, "account_id", d.AccountID)
						continue
					}
					return err
				}
			}
			return nil
		})
		if !errors.Is(err, repository.ErrVersionConflict) {
			break
		}
		s.log.Debug("balance version conflict, retrying", "operation", op, "user_id", ownerID, "attempt", attempt)
	}
	if err != nil {
		s.log.Error("ledger write failed", "operation", op, "user_id", ownerID, "error", err)
		return "", err
	}
	return id, nil
}

func (s *LedgerService) commitJournaled(ctx context.Context, ownerID, op string, write func(*repository.Store) (string, error), deltas []balanceDelta, skipMissing bool) (string, error) {
	var id string
	var adjs []models.BalanceAdjustment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var werr error
		if id, werr = write(tx); werr != nil {
			return werr
		}
		adjs = adjs[:0]
		for _, d := range deltas {
			adj := &models.BalanceAdjustment{UserID: ownerID, AccountID: d.AccountID, TransactionID: id, Delta: d.Delta}
			if err := tx.Adjustments.Create(ctx, adj); err != nil {
				return err
			}
			adjs = append(adjs, *adj)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	for _, adj := range adjs {
		err := s.applyAdjustment(ctx, adj)
		if err == nil {
			continue
		}
		if skipMissing && errors.Is(err, repository.ErrNotFound) {
			s.discardAdjustment(ctx, adj, err)
			continue
		}
		s.log.Error("balance adjustment left pending", "operation", op, "user_id", ownerID,
			"transaction_id", id, "adjustment_id", adj.ID, "error", err)
		return id, &BalanceNotUpdatedError{TransactionID: id, AccountID: adj.AccountID, Err: err}
	}
	return id, nil
}

func (s *LedgerService) commitSequential(ctx context.Context, ownerID, op string, write func(*repository.Store) (string, error), deltas []balanceDelta, skipMissing bool) (string, error) {
	// 1. 写记录，失败则余额不变
	id, err := write(s.store)
	if err != nil {
		return "", err
	}
	for _, d := range deltas {
		// 2. 读取账户
		account, err := s.store.Accounts.Get(ctx, ownerID, d.AccountID)
		if err != nil {
			if skipMissing && errors.Is(err, repository.ErrNotFound) {
				continue
			}
			s.log.Error("balance not updated", "operation", op, "user_id", ownerID, "transaction_id", id, "account_id", d.AccountID, "error", err)
			return id, &BalanceNotUpdatedError{TransactionID: id, AccountID: d.AccountID, Err: err}
		}
		// 3-4. 只写 balance 字段
		balance := account.Balance.Add(d.Delta)
		if err := s.store.Accounts.Update(ctx, ownerID, account.ID, models.AccountPatch{Balance: &balance}); err != nil {
			s.log.Error("balance not updated", "operation", op, "user_id", ownerID, "transaction_id", id, "account_id", d.AccountID, "error", err)
			return id, &BalanceNotUpdatedError{TransactionID: id, AccountID: d.AccountID, Err: err}
		}
	}
	return id, nil
}

// applyAdjustment 在一个数据库事务中标记并应用余额变动，保证只应用一次
func (s *LedgerService) applyAdjustment(ctx context.Context, adj models.BalanceAdjustment) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries(); attempt++ {
		err = s.store.Transaction(ctx, func(tx *repository.Store) error {
			if err := tx.Adjustments.MarkApplied(ctx, adj.ID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return errAlreadyApplied
				}
				return err
			}
			return adjustBalance(ctx, tx, adj.UserID, balanceDelta{AccountID: adj.AccountID, Delta: adj.Delta})
		})
		if !errors.Is(err, repository.ErrVersionConflict) {
			break
		}
	}
	if errors.Is(err, errAlreadyApplied) {
		return nil
	}
	if err != nil {
		if rerr := s.store.Adjustments.RecordFailure(ctx, adj.ID, err); rerr != nil {
			s.log.Warn("record adjustment failure", "adjustment_id", adj.ID, "error", rerr)
		}
	}
	return err
}

// discardAdjustment 账户已不存在，标记不再重放
func (s *LedgerService) discardAdjustment(ctx context.Context, adj models.BalanceAdjustment, cause error) {
	s.log.Warn("discarding balance adjustment", "adjustment_id", adj.ID, "account_id", adj.AccountID, "error", cause)
	if err := s.store.Adjustments.MarkApplied(ctx, adj.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("discard adjustment failed", "adjustment_id", adj.ID, "error", err)
	}
}

// ReconcileResult 重放结果
type ReconcileResult struct {
	Applied   int `json:"applied"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
}

// Reconcile 重放所有待应用的余额变动；ownerID 为空时处理全部用户
func (s *LedgerService) Reconcile(ctx context.Context, ownerID string) (ReconcileResult, error) {
	var res ReconcileResult
	pending, err := s.store.Adjustments.ListPending(ctx, ownerID)
	if err != nil {
		return res, err
	}
	for _, adj := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := s.applyAdjustment(ctx, adj)
		switch {
		case err == nil:
			res.Applied++
		case errors.Is(err, repository.ErrNotFound):
			s.discardAdjustment(ctx, adj, err)
			res.Discarded++
		default:
			s.log.Error("reconcile adjustment failed", "adjustment_id", adj.ID, "error", err)
			res.Failed++
		}
	}
	if len(pending) > 0 {
		s.log.Info("reconcile finished", "operation", "reconcile", "applied", res.Applied, "discarded", res.Discarded, "failed", res.Failed)
	}
	return res, nil
}

func adjustBalance(ctx context.Context, st *repository.Store, ownerID string, d balanceDelta) error {
	account, err := st.Accounts.Get(ctx, ownerID, d.AccountID)
	if err != nil {
		return err
	}
	return st.Accounts.CompareAndSetBalance(ctx, ownerID, account.ID, account.Version, account.Balance.Add(d.Delta))
}
