package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fintrack/format"
	"fintrack/models"
	"fintrack/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportRow 导出的一行记录
type ExportRow struct {
	Date        time.Time
	Type        models.EntryType
	Name        string
	Category    string
	Account     string
	Amount      decimal.Decimal
	Currency    models.Currency
	Description string
}

var exportHeaders = []string{"Data", "Typ", "Nazwa", "Kategoria", "Konto", "Kwota", "Waluta", "Opis"}

func (r ExportRow) cells() []string {
	return []string{
		format.Date(r.Date),
		format.EntryTypeLabel(r.Type),
		r.Name,
		r.Category,
		r.Account,
		r.Amount.StringFixed(2),
		string(r.Currency),
		r.Description,
	}
}

// ExportService 按时间范围导出收支记录
type ExportService struct {
	store *repository.Store
}

// NewExportService 创建导出服务
func NewExportService(store *repository.Store) *ExportService {
	return &ExportService{store: store}
}

// Rows 查询 [from, to) 内的记录，并解析分类与账户名称
func (s *ExportService) Rows(ctx context.Context, ownerID string, from, to time.Time) ([]ExportRow, error) {
	txs, err := s.store.Transactions.List(ctx, ownerID, repository.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	userCats, err := s.store.Categories.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defaultCats, err := s.store.Categories.ListDefaults(ctx)
	if err != nil {
		return nil, err
	}

	accountNames := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a
	}
	categoryNames := make(map[string]string, len(userCats)+len(defaultCats))
	for _, c := range defaultCats {
		categoryNames[c.ID] = c.Name
	}
	for _, c := range userCats {
		categoryNames[c.ID] = c.Name
	}

	rows := make([]ExportRow, 0, len(txs))
	for _, t := range txs {
		row := ExportRow{
			Date:        t.Date,
			Type:        t.Type,
			Name:        t.Name,
			Category:    categoryNames[t.CategoryID],
			Amount:      t.Amount,
			Currency:    t.Currency,
			Description: t.Description,
		}
		if a, ok := accountNames[t.AccountID]; ok {
			row.Account = a.Name
			if row.Currency == "" {
				row.Currency = a.Currency
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV 写出 CSV，带 UTF-8 BOM 以便 Excel 正确识别
func WriteCSV(w io.Writer, rows []ExportRow) error {
	if _, err := io.WriteString(w, "\xEF\xBB\xBF"); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(r.cells()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

const exportSheet = "Transakcje"

// WriteXLSX 写出 Excel 文件，末尾附按币种的收支合计
func WriteXLSX(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return err
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return err
	}

	widths := []float64{12, 12, 30, 18, 18, 14, 8, 40}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return err
		}
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle)

	type totals struct{ income, expense decimal.Decimal }
	sums := map[models.Currency]*totals{}
	var order []models.Currency

	for i, r := range rows {
		row := i + 2
		for j, v := range r.cells() {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if j == 5 {
				f.SetCellValue(exportSheet, cell, r.Amount.InexactFloat64())
				continue
			}
			f.SetCellValue(exportSheet, cell, v)
		}
		f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), dataStyle)

		s, ok := sums[r.Currency]
		if !ok {
			s = &totals{}
			sums[r.Currency] = s
			order = append(order, r.Currency)
		}
		if r.Type == models.EntryTypeIncome {
			s.income = s.income.Add(r.Amount)
		} else {
			s.expense = s.expense.Add(r.Amount)
		}
	}

	row := len(rows) + 3
	for _, c := range order {
		s := sums[c]
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), "Razem "+string(c))
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), "Przychody")
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), format.Money(s.income, c))
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), "Wydatki")
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), format.Money(s.expense, c))
		f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), summaryStyle)
		row++
	}
	f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("Liczba pozycji: %d", len(rows)))

	_, err = f.WriteTo(w)
	return err
}
