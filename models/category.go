package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoriesTable 系统默认类别表（全局只读）
const DefaultCategoriesTable = "default_categories"

// Category 收支类别
// 用户类别存放于 categories（按 user_id 隔离，IsDefault 恒为 false），
// 默认类别存放于 default_categories（IsDefault 恒为 true）。
type Category struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	UserID    string         `json:"-" gorm:"size:36;index"`
	Name      string         `json:"name" gorm:"size:100;not null;index"`
	Type      EntryType      `json:"type" gorm:"size:10;not null"`
	Color     string         `json:"color" gorm:"size:7;not null;default:#64748b"`
	Icon      string         `json:"icon" gorm:"size:50;not null"`
	IsDefault bool           `json:"isDefault" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Validate 写入前校验：名称、类型、颜色、图标
func (c *Category) Validate() error {
	if err := requireName(c.Name); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return invalid("type", "must be income or expense")
	}
	if err := requireColor(c.Color); err != nil {
		return err
	}
	if !IsKnownIcon(c.Icon) {
		return invalid("icon", "unknown icon "+c.Icon)
	}
	return nil
}

// CategoryPatch 类别局部更新
type CategoryPatch struct {
	Name  *string
	Type  *EntryType
	Color *string
	Icon  *string
}

func (p CategoryPatch) Validate() error {
	if p.Name != nil {
		if err := requireName(*p.Name); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.Valid() {
		return invalid("type", "must be income or expense")
	}
	if p.Color != nil {
		if err := requireColor(*p.Color); err != nil {
			return err
		}
	}
	if p.Icon != nil && !IsKnownIcon(*p.Icon) {
		return invalid("icon", "unknown icon "+*p.Icon)
	}
	return nil
}

func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Color == nil && p.Icon == nil
}
