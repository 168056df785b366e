package database

import (
	"log/slog"

	"fintrack/models"

	"gorm.io/gorm"
)

// defaultCategories 系统默认类别（与前端配色保持一致）
var defaultCategories = []models.Category{
	{Name: "Wynagrodzenie", Type: models.EntryTypeIncome, Color: "#10b981", Icon: "Banknotes"},
	{Name: "Premia", Type: models.EntryTypeIncome, Color: "#3b82f6", Icon: "Trophy"},
	{Name: "Inwestycje", Type: models.EntryTypeIncome, Color: "#a855f7", Icon: "ChartBar"},
	{Name: "Prezenty", Type: models.EntryTypeIncome, Color: "#ec4899", Icon: "Gift"},
	{Name: "Inne przychody", Type: models.EntryTypeIncome, Color: "#64748b", Icon: "Wallet"},
	{Name: "Jedzenie", Type: models.EntryTypeExpense, Color: "#ef4444", Icon: "ShoppingCart"},
	{Name: "Transport", Type: models.EntryTypeExpense, Color: "#3b82f6", Icon: "Truck"},
	{Name: "Mieszkanie", Type: models.EntryTypeExpense, Color: "#14b8a6", Icon: "Home"},
	{Name: "Rachunki", Type: models.EntryTypeExpense, Color: "#f59e0b", Icon: "ReceiptPercent"},
	{Name: "Zdrowie", Type: models.EntryTypeExpense, Color: "#10b981", Icon: "Heart"},
	{Name: "Rozrywka", Type: models.EntryTypeExpense, Color: "#ec4899", Icon: "Film"},
	{Name: "Zakupy", Type: models.EntryTypeExpense, Color: "#a855f7", Icon: "ShoppingBag"},
	{Name: "Edukacja", Type: models.EntryTypeExpense, Color: "#f97316", Icon: "AcademicCap"},
	{Name: "Uroda", Type: models.EntryTypeExpense, Color: "#d946ef", Icon: "Scissors"},
	{Name: "Inne wydatki", Type: models.EntryTypeExpense, Color: "#64748b", Icon: "QuestionMarkCircle"},
}

// DefaultCategories 返回内置默认类别的副本
func DefaultCategories() []models.Category {
	out := make([]models.Category, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// SeedDefaultCategories 补齐缺失的默认类别，按 (name, type) 去重，可重复执行
func SeedDefaultCategories(db *gorm.DB) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range DefaultCategories() {
			var count int64
			if err := tx.Table(models.DefaultCategoriesTable).
				Where("name = ? AND type = ?", c.Name, c.Type).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			c.IsDefault = true
			if err := tx.Table(models.DefaultCategoriesTable).Create(&c).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		slog.Info("default categories seeded", "component", "database", "created", created)
	}
	return created, nil
}
