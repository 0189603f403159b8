package sqldb

import (
	"context"
	"time"

	"randomchallenge/api/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func (r *CategoryRepository) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	out := []models.Category{}
	if err := q.Find(&out).Error; err != nil {
		return nil, models.StoreError("list categories", err)
	}
	return out, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate("get category", err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return translate("create category", r.DB.WithContext(ctx).Create(c).Error)
}

var categoryColumns = []string{"name", "emoji", "color", "description", "is_active", "updated_at"}

func (r *CategoryRepository) Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	var c models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		c.Apply(patch)
		c.UpdatedAt = time.Now().UTC()
		return tx.Model(&c).Select(categoryColumns).Updates(&c).Error
	})
	if err != nil {
		return nil, translate("update category", err)
	}
	return &c, nil
}

func (r *CategoryRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return models.StoreError("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return 0, models.StoreError("count categories", err)
	}
	return n, nil
}
