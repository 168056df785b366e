package repository

import (
	"context"
	"errors"

	"fintrack/models"

	"gorm.io/gorm"
)

// CategoryRepository 类别网关：用户类别可写，默认类别只读
type CategoryRepository struct {
	db *gorm.DB
}

func (r *CategoryRepository) scoped(ctx context.Context, ownerID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ?", ownerID)
}

func (r *CategoryRepository) defaults(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(models.DefaultCategoriesTable)
}

// List 用户类别，按名称排序，IsDefault 恒为 false
func (r *CategoryRepository) List(ctx context.Context, ownerID string) ([]models.Category, error) {
	var cats []models.Category
	if err := r.scoped(ctx, ownerID).Order("name, id").Find(&cats).Error; err != nil {
		return nil, wrap(err)
	}
	return normalizeCategories(cats, false)
}

// ListDefaults 默认类别，按名称排序，IsDefault 恒为 true
func (r *CategoryRepository) ListDefaults(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.defaults(ctx).Order("name, id").Find(&cats).Error; err != nil {
		return nil, wrap(err)
	}
	return normalizeCategories(cats, true)
}

// Get 获取用户类别
func (r *CategoryRepository) Get(ctx context.Context, ownerID, id string) (*models.Category, error) {
	var c models.Category
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrap(err)
	}
	if err := normalizeCategory(&c, false); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetDefault 获取默认类别
func (r *CategoryRepository) GetDefault(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := r.defaults(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrap(err)
	}
	if err := normalizeCategory(&c, true); err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve 先查用户类别，再查默认类别
func (r *CategoryRepository) Resolve(ctx context.Context, ownerID, id string) (*models.Category, error) {
	c, err := r.Get(ctx, ownerID, id)
	if errors.Is(err, ErrNotFound) {
		return r.GetDefault(ctx, id)
	}
	return c, err
}

// Create 创建用户类别，IsDefault 强制为 false
func (r *CategoryRepository) Create(ctx context.Context, ownerID string, c *models.Category) (string, error) {
	c.ID = ""
	c.UserID = ownerID
	c.IsDefault = false
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return "", wrap(err)
	}
	return c.ID, nil
}

// Update 合并给出的字段；默认类别不在用户范围内，返回 ErrNotFound
func (r *CategoryRepository) Update(ctx context.Context, ownerID, id string, patch models.CategoryPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := r.exists(ctx, ownerID, id); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}
	return wrap(r.scoped(ctx, ownerID).Where("id = ?", id).Updates(updates).Error)
}

// Delete 删除用户类别；不存在时同样视为成功
func (r *CategoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&models.Category{}).Error
	return wrap(err)
}

// exists 只检查存在性，不做枚举校验，使损坏的记录仍可被修正
func (r *CategoryRepository) exists(ctx context.Context, ownerID, id string) error {
	var count int64
	if err := r.scoped(ctx, ownerID).Where("id = ?", id).Count(&count).Error; err != nil {
		return wrap(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeCategories(cats []models.Category, isDefault bool) ([]models.Category, error) {
	for i := range cats {
		if err := normalizeCategory(&cats[i], isDefault); err != nil {
			return nil, err
		}
	}
	return cats, nil
}

func normalizeCategory(c *models.Category, isDefault bool) error {
	if !c.Type.Valid() {
		return schemaMismatch("category", c.ID, "type", c.Type)
	}
	c.IsDefault = isDefault
	c.Icon = models.ResolveIcon(c.Icon)
	return nil
}
