// Package adapters provides repository implementations for the catalog feature.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"catalog_backend/internal/feature/catalog/domain/entity"
	"catalog_backend/internal/feature/catalog/usecase"
)

// productGorm is a GORM implementation of the ProductRepository interface.
type productGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure productGorm implements ProductRepository.
var _ usecase.ProductRepository = (*productGorm)(nil)

// NewProductGorm creates a new instance of productGorm.
func NewProductGorm(db *gorm.DB) *productGorm {
	return &productGorm{db: db}
}

// Create persists a new product row.
func (r *productGorm) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID retrieves a product by its ID.
func (r *productGorm) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	var p entity.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update saves all fields of a product row.
func (r *productGorm) Update(ctx context.Context, p *entity.Product) error {
	result := r.db.WithContext(ctx).Save(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrProductNotFound
	}
	return nil
}

// Delete hard-deletes a product row.
func (r *productGorm) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrProductNotFound
	}
	return nil
}

// List returns a page of products ordered newest-first, plus the total count.
func (r *productGorm) List(ctx context.Context, offset, limit int) ([]entity.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []entity.Product
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
