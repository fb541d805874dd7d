package store

import (
	"context"

	"gorm.io/gorm"

	"kbdesk/apperr"
	"kbdesk/models"
)

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	found, err := first(s.conn(ctx).Where("id = ?", id), &category)
	if err != nil {
		return nil, apperr.Store("loading category", err)
	}
	if !found {
		return nil, nil
	}
	return &category, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	found, err := first(s.conn(ctx).Where("name = ?", name), &category)
	if err != nil {
		return nil, apperr.Store("loading category", err)
	}
	if !found {
		return nil, nil
	}
	return &category, nil
}

// ListCategories returns all categories alphabetically.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.conn(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperr.Store("listing categories", err)
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	existing, err := s.GetCategoryByName(ctx, category.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("category %q already exists", category.Name)
	}

	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}

	if err := s.conn(ctx).Create(category).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("category %q already exists", category.Name)
		}
		return apperr.Store("creating category", err)
	}
	return nil
}

// DeleteCategory removes a category and detaches its articles; the articles
// themselves stay.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Article{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("category not found")
		}
		return nil
	})
	return apperr.Store("deleting category", err)
}

func (s *Store) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Category{}).Count(&n).Error; err != nil {
		return 0, apperr.Store("counting categories", err)
	}
	return n, nil
}
