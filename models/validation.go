package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid 所有校验错误都可以用 errors.Is(err, ErrInvalid) 判断
var ErrInvalid = errors.New("invalid value")

// ValidationError 字段校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "must not be empty")
	}
	if len([]rune(name)) > 100 {
		return invalid("name", "must be at most 100 characters")
	}
	return nil
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	return nil
}

// MoneyScale 金额列为 decimal(15,2)
const MoneyScale = 2

// requireCents 最多两位小数，避免数据库按列各自舍入后余额与记录不一致
func requireCents(field string, v decimal.Decimal) error {
	if !v.Equal(v.Truncate(MoneyScale)) {
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}

func requireColor(color string) error {
	if !colorPattern.MatchString(color) {
		return invalid("color", "must be a #rrggbb color")
	}
	return nil
}
