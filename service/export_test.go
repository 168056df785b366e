package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedExport(t *testing.T) (*ExportService, time.Time, time.Time) {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	acc := createAccount(t, s, "100", models.CurrencyPLN)
	cat := createCategory(t, s, models.EntryTypeExpense)

	tx := newTx(models.EntryTypeExpense, "12.5", acc, cat)
	tx.Date = time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	tx.Description = "obiad, z deserem"
	_, err := s.Transactions.Create(ctx, testOwner, tx)
	require.NoError(t, err)

	outside := newTx(models.EntryTypeIncome, "40", acc, "")
	outside.Date = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.Transactions.Create(ctx, testOwner, outside)
	require.NoError(t, err)

	return NewExportService(s), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestExport_RowsResolveNames(t *testing.T) {
	svc, from, to := seedExport(t)

	rows, err := svc.Rows(context.Background(), testOwner, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1, "upper bound is exclusive")
	assert.Equal(t, "Jedzenie", rows[0].Category)
	assert.Equal(t, "Checking", rows[0].Account)
	assert.Equal(t, models.CurrencyPLN, rows[0].Currency)
}

func TestExport_CSV(t *testing.T) {
	svc, from, to := seedExport(t)
	rows, err := svc.Rows(context.Background(), testOwner, from, to)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	require.True(t, strings.HasPrefix(buf.String(), "\xEF\xBB\xBF"))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, []string{"3.05.2024", "Wydatek", "Zakupy", "Jedzenie", "Checking", "12.50", "PLN", "obiad, z deserem"}, records[1])
}

func TestExport_XLSX(t *testing.T) {
	svc, from, to := seedExport(t)
	rows, err := svc.Rows(context.Background(), testOwner, from, to)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Data", header)
	name, err := f.GetCellValue(exportSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Zakupy", name)
	total, err := f.GetCellValue(exportSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Razem PLN", total)
}
