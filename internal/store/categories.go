package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/erazemk/supermercado/internal/model"
)

// ListCategories returns all categories ordered by id.
func ListCategories(ctx context.Context, db *gorm.DB) ([]model.Category, error) {
	var categories []model.Category
	if err := db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// CategoryExists reports whether a category with the given ID exists.
func CategoryExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}
	return count > 0, nil
}
