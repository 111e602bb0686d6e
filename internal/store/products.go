package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/erazemk/supermercado/internal/model"
)

// likeEscaper makes a user supplied prefix match literally inside LIKE.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// ListProducts returns products ordered by id with their category loaded.
// A nil filter returns every product; otherwise inactive products are left
// out unless the filter includes them.
func ListProducts(ctx context.Context, db *gorm.DB, filter *model.ProductFilter) ([]model.Product, error) {
	q := db.WithContext(ctx).Preload("Category").Order("id ASC")

	if filter != nil {
		if filter.NamePrefix != "" {
			q = q.Where("name LIKE ? ESCAPE '!'", likeEscaper.Replace(filter.NamePrefix)+"%")
		}
		if filter.CategoryID != nil {
			q = q.Where("categoria_id = ?", *filter.CategoryID)
		}
		if !filter.IncludeInactive {
			q = q.Where("estado = ?", true)
		}
	}

	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetProduct returns a product by ID with its category loaded, or nil if it
// does not exist.
func GetProduct(ctx context.Context, db *gorm.DB, id int64) (*model.Product, error) {
	var p model.Product
	err := db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

// CreateProduct inserts p and fills in its ID. The category association is
// referenced by CategoryID only, never written.
func CreateProduct(ctx context.Context, db *gorm.DB, p *model.Product) error {
	if err := db.WithContext(ctx).Omit("Category").Create(p).Error; err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// UpdateProduct writes the given columns of a product. Columns not present
// in cols are left unchanged.
func UpdateProduct(ctx context.Context, db *gorm.DB, id int64, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	err := db.WithContext(ctx).
		Model(&model.Product{ID: id}).
		Updates(cols).Error
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

// SetProductImage sets or, with a nil ref, clears a product's image reference.
func SetProductImage(ctx context.Context, db *gorm.DB, id int64, ref *string) error {
	var value any
	if ref != nil {
		value = *ref
	}
	return UpdateProduct(ctx, db, id, map[string]any{"imagen": value})
}

// DeleteProduct removes a product record.
func DeleteProduct(ctx context.Context, db *gorm.DB, id int64) error {
	if err := db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}

// TotalStock returns the sum of stock over all products, active or not.
func TotalStock(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	row := db.WithContext(ctx).
		Model(&model.Product{}).
		Select("COALESCE(SUM(stock), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("summing stock: %w", err)
	}
	return total, nil
}
