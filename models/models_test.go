package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	at, err := ParseAccountType("bank")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeBank, at)

	_, err = ParseAccountType("savings")
	assert.ErrorIs(t, err, ErrInvalid)

	cur, err := ParseCurrency("EUR")
	require.NoError(t, err)
	assert.Equal(t, CurrencyEUR, cur)

	_, err = ParseCurrency("eur")
	assert.Error(t, err)

	et, err := ParseEntryType("expense")
	require.NoError(t, err)
	assert.Equal(t, EntryTypeExpense, et)

	_, err = ParseEntryType("transfer")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "type", ve.Field)
}

func TestAccount_Validate(t *testing.T) {
	a := &Account{Name: "Konto", Balance: decimal.NewFromInt(-50), Currency: CurrencyPLN, Type: AccountTypeBank}
	// 余额允许为负（透支）
	assert.NoError(t, a.Validate())

	tests := []struct {
		name    string
		account Account
		field   string
	}{
		{"empty name", Account{Name: "  ", Currency: CurrencyPLN, Type: AccountTypeCash}, "name"},
		{"bad currency", Account{Name: "x", Currency: "GBP", Type: AccountTypeCash}, "currency"},
		{"bad type", Account{Name: "x", Currency: CurrencyUSD, Type: "card"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	c := &Category{Name: "Jedzenie", Type: EntryTypeExpense, Color: "#ef4444", Icon: "ShoppingCart"}
	assert.NoError(t, c.Validate())

	c.Color = "red"
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	c.Color = "#ef4444"
	c.Icon = "NoSuchIcon"
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	icon := "Home"
	assert.NoError(t, CategoryPatch{Icon: &icon}.Validate())
	bad := "Nope"
	assert.Error(t, CategoryPatch{Icon: &bad}.Validate())
	assert.True(t, CategoryPatch{}.Empty())
}

func TestTransaction_Validate(t *testing.T) {
	tx := &Transaction{
		Type:      EntryTypeExpense,
		Name:      "Zakupy",
		Amount:    decimal.NewFromInt(0),
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AccountID: "A1",
	}
	// 金额为 0 合法，币种为空合法
	assert.NoError(t, tx.Validate())

	tx.Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)

	tx.Amount = decimal.NewFromInt(10)
	tx.AccountID = ""
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)

	tx.AccountID = "A1"
	tx.Currency = "JPY"
	assert.ErrorIs(t, tx.Validate(), ErrInvalid)
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("150.25")
	assert.True(t, SignedAmount(EntryTypeIncome, amount).Equal(amount))
	assert.True(t, SignedAmount(EntryTypeExpense, amount).Equal(amount.Neg()))
}

func TestTransactionPatch_Apply(t *testing.T) {
	base := Transaction{ID: "T1", Type: EntryTypeExpense, Name: "a", Amount: decimal.NewFromInt(5), AccountID: "A1"}
	amount := decimal.NewFromInt(7)
	name := "b"
	p := TransactionPatch{Amount: &amount, Name: &name}

	got := p.Apply(base)
	assert.Equal(t, "b", got.Name)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "A1", got.AccountID)
	assert.Equal(t, "a", base.Name, "原记录不被修改")
	assert.True(t, p.TouchesBalance())

	desc := "x"
	assert.False(t, TransactionPatch{Description: &desc}.TouchesBalance())
}

func TestIcons(t *testing.T) {
	assert.True(t, IsKnownIcon("ShoppingCart"))
	assert.False(t, IsKnownIcon("ShoppingCartIcon"))
	assert.Equal(t, "Home", ResolveIcon("Home"))
	assert.Equal(t, IconFallback, ResolveIcon("Unknown"))
	assert.Equal(t, IconFallback, ResolveIcon(""))

	icons := Icons()
	assert.Contains(t, icons, IconFallback)
	assert.IsNonDecreasing(t, icons)
}

func TestMoneyScale(t *testing.T) {
	tests := []struct {
		amount string
		ok     bool
	}{
		{"12", true},
		{"12.5", true},
		{"12.50", true},
		{"12.500", true},
		{"0.005", false},
		{"999.995", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			v := decimal.RequireFromString(tt.amount)

			tx := &Transaction{Type: EntryTypeIncome, Name: "x", Amount: v, Date: time.Now(), AccountID: "A1"}
			acc := &Account{Name: "x", Balance: v, Currency: CurrencyPLN, Type: AccountTypeCash}
			checks := map[string]error{
				"transaction":       tx.Validate(),
				"transaction patch": TransactionPatch{Amount: &v}.Validate(),
				"account":           acc.Validate(),
				"account patch":     AccountPatch{Balance: &v}.Validate(),
			}
			for name, err := range checks {
				if tt.ok {
					assert.NoError(t, err, name)
				} else {
					assert.ErrorIs(t, err, ErrInvalid, name)
				}
			}
		})
	}
}
