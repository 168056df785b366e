// Package format 金额、日期与枚举的展示格式（pl-PL）
package format

import (
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
)

// nbsp pl-PL 使用不换行空格做千分位与货币分隔
const nbsp = "\u00a0"

// DateLayout 对应 pl-PL 数字日期，例如 1.01.2024
const DateLayout = "2.01.2006"

var currencySymbols = map[models.Currency]string{
	models.CurrencyPLN: "zł",
	models.CurrencyEUR: "€",
	models.CurrencyUSD: "USD",
}

// CurrencySymbol 币种展示符号，未知币种原样返回代码
func CurrencySymbol(c models.Currency) string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Money 格式化金额，例如 12 345,67 zł
func Money(amount decimal.Decimal, c models.Currency) string {
	return Number(amount) + nbsp + CurrencySymbol(c)
}

// Number 保留两位小数，逗号为小数点；整数部分不少于 5 位时才分组
func Number(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) >= 5 {
		intPart = group(intPart)
	}
	sign := ""
	if amount.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + intPart + "," + frac
}

func group(digits string) string {
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(nbsp)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date 格式化日期
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// AccountTypeLabel 账户类型名称
func AccountTypeLabel(t models.AccountType) string {
	if t == models.AccountTypeBank {
		return "Konto bankowe"
	}
	return "Gotówka"
}

// AccountIcon 账户类型图标
func AccountIcon(t models.AccountType) string {
	switch t {
	case models.AccountTypeBank:
		return "🏦"
	case models.AccountTypeCash:
		return "💵"
	default:
		return "📊"
	}
}

// EntryTypeLabel 收支类型名称
func EntryTypeLabel(t models.EntryType) string {
	if t == models.EntryTypeIncome {
		return "Przychód"
	}
	return "Wydatek"
}
