package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/format"
	"fintrack/models"
	"fintrack/repository"

	"github.com/shopspring/decimal"
)

// RecentTransactionsLimit 首页展示的最近记录条数
const RecentTransactionsLimit = 10

// Money 金额及其展示文本
type Money struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  models.Currency `json:"currency"`
	Formatted string          `json:"formatted"`
}

func newMoney(amount decimal.Decimal, c models.Currency) Money {
	return Money{Amount: amount, Currency: c, Formatted: format.Money(amount, c)}
}

// CurrencySummary 单一币种的汇总
type CurrencySummary struct {
	Currency models.Currency `json:"currency"`
	Income   Money           `json:"income"`
	Expense  Money           `json:"expense"`
	Net      Money           `json:"net"`
	Balance  Money           `json:"balance"`
}

// RecentTransaction 最近记录的展示形式
type RecentTransaction struct {
	models.Transaction
	TypeLabel       string `json:"type_label"`
	FormattedAmount string `json:"formatted_amount"`
	FormattedDate   string `json:"formatted_date"`
}

// AccountSummary 账户的展示形式
type AccountSummary struct {
	models.Account
	TypeLabel        string `json:"type_label"`
	Icon             string `json:"icon"`
	FormattedBalance string `json:"formatted_balance"`
}

// Dashboard 首页汇总
type Dashboard struct {
	Month        string              `json:"month"`
	TotalIncome  Money               `json:"total_income"`
	TotalExpense Money               `json:"total_expense"`
	Net          Money               `json:"net"`
	TotalBalance Money               `json:"total_balance"`
	ByCurrency   []CurrencySummary   `json:"by_currency"`
	Accounts     []AccountSummary    `json:"accounts"`
	Recent       []RecentTransaction `json:"recent_transactions"`
}

// DashboardService 首页汇总
type DashboardService struct {
	store *repository.Store
}

// NewDashboardService 创建汇总服务
func NewDashboardService(store *repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// MonthRange 解析 YYYY-MM，返回 [月初, 下月初)；空串表示 now 所在月份
func MonthRange(month string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	if month == "" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	} else {
		t, err := time.ParseInLocation("2006-01", month, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, &models.ValidationError{Field: "month", Reason: "must be YYYY-MM"}
		}
		start = t
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Build 汇总指定月份的收支与全部账户余额
// 总计沿用单一币种展示（PLN），各币种明细见 ByCurrency；无币种的历史记录按 PLN 计。
func (s *DashboardService) Build(ctx context.Context, ownerID, month string, now time.Time) (*Dashboard, error) {
	from, to, err := MonthRange(month, now)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions.List(ctx, ownerID, repository.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Transactions.List(ctx, ownerID, repository.TransactionFilter{Limit: RecentTransactionsLimit})
	if err != nil {
		return nil, err
	}

	type bucket struct{ income, expense, balance decimal.Decimal }
	buckets := map[models.Currency]*bucket{}
	get := func(c models.Currency) *bucket {
		if c == "" {
			c = models.CurrencyPLN
		}
		b, ok := buckets[c]
		if !ok {
			b = &bucket{}
			buckets[c] = b
		}
		return b
	}

	var income, expense, balance decimal.Decimal
	for _, t := range txs {
		b := get(t.Currency)
		if t.Type == models.EntryTypeIncome {
			income = income.Add(t.Amount)
			b.income = b.income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
			b.expense = b.expense.Add(t.Amount)
		}
	}

	d := &Dashboard{
		Month:    from.Format("2006-01"),
		Accounts: make([]AccountSummary, 0, len(accounts)),
		Recent:   make([]RecentTransaction, 0, len(recent)),
	}
	for _, a := range accounts {
		balance = balance.Add(a.Balance)
		b := get(a.Currency)
		b.balance = b.balance.Add(a.Balance)
		d.Accounts = append(d.Accounts, AccountSummary{
			Account:          a,
			TypeLabel:        format.AccountTypeLabel(a.Type),
			Icon:             format.AccountIcon(a.Type),
			FormattedBalance: format.Money(a.Balance, a.Currency),
		})
	}

	d.TotalIncome = newMoney(income, models.CurrencyPLN)
	d.TotalExpense = newMoney(expense, models.CurrencyPLN)
	d.Net = newMoney(income.Sub(expense), models.CurrencyPLN)
	d.TotalBalance = newMoney(balance, models.CurrencyPLN)

	for c, b := range buckets {
		d.ByCurrency = append(d.ByCurrency, CurrencySummary{
			Currency: c,
			Income:   newMoney(b.income, c),
			Expense:  newMoney(b.expense, c),
			Net:      newMoney(b.income.Sub(b.expense), c),
			Balance:  newMoney(b.balance, c),
		})
	}
	sort.Slice(d.ByCurrency, func(i, j int) bool { return d.ByCurrency[i].Currency < d.ByCurrency[j].Currency })

	for _, t := range recent {
		d.Recent = append(d.Recent, RecentTransaction{
			Transaction:     t,
			TypeLabel:       format.EntryTypeLabel(t.Type),
			FormattedAmount: formatSigned(t),
			FormattedDate:   format.Date(t.Date),
		})
	}
	return d, nil
}

func formatSigned(t models.Transaction) string {
	c := t.Currency
	if c == "" {
		c = models.CurrencyPLN
	}
	sign := "+"
	if t.Type == models.EntryTypeExpense {
		sign = "-"
	}
	return fmt.Sprintf("%s%s", sign, format.Money(t.Amount, c))
}
