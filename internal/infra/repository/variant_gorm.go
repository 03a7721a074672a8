package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type VariantGormRepository struct {
	db *gorm.DB
}

// DI
func NewVariantGormRepository(db *gorm.DB) *VariantGormRepository {
	return &VariantGormRepository{db: db}
}

// IDでバリアントを取得
func (r *VariantGormRepository) FindByID(ctx context.Context, variantID int64) (model.Variant, error) {
	var v model.Variant
	err := r.db.WithContext(ctx).First(&v, variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Variant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Variant{}, err
	}
	return v, nil
}

// 商品のバリアント一覧
func (r *VariantGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Variant, error) {
	var items []model.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.Variant{}, err
	}
	return items, nil
}
