package models

import "fmt"

// AccountType 账户类型
type AccountType string

const (
	AccountTypeCash AccountType = "cash"
	AccountTypeBank AccountType = "bank"
)

// Currency 账户币种（封闭集合）
type Currency string

const (
	CurrencyPLN Currency = "PLN"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// EntryType 收支类型，Category 与 Transaction 共用
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// Valid 是否为已知的账户类型
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank:
		return true
	}
	return false
}

// Valid 是否为已知币种
func (c Currency) Valid() bool {
	switch c {
	case CurrencyPLN, CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

// Valid 是否为已知收支类型
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeIncome, EntryTypeExpense:
		return true
	}
	return false
}

// Currencies 返回所有支持的币种
func Currencies() []Currency {
	return []Currency{CurrencyPLN, CurrencyEUR, CurrencyUSD}
}

// ParseAccountType 解析账户类型
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.Valid() {
		return "", invalid("type", fmt.Sprintf("unknown account type %q", s))
	}
	return t, nil
}

// ParseCurrency 解析币种
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.Valid() {
		return "", invalid("currency", fmt.Sprintf("unknown currency %q", s))
	}
	return c, nil
}

// ParseEntryType 解析收支类型
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(s)
	if !t.Valid() {
		return "", invalid("type", fmt.Sprintf("unknown entry type %q", s))
	}
	return t, nil
}
