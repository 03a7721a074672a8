package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// variant_idはNULL可なのでWHEREを出し分ける
func withVariant(tx *gorm.DB, variantID *int64) *gorm.DB {
	if variantID == nil {
		return tx.Where("variant_id IS NULL")
	}
	return tx.Where("variant_id = ?", *variantID)
}

// (product, variant)の在庫レコードを1件取得。無ければErrNotFound
func (r *InventoryGormRepository) FindByProductAndVariant(ctx context.Context, productID int64, variantID *int64) (model.Inventory, error) {
	var inv model.Inventory

	tx := r.db.WithContext(ctx).Where("product_id = ?", productID)
	err := withVariant(tx, variantID).First(&inv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Inventory{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// 在庫数の現在値を設定（レコードが無ければ作る）
func (r *InventoryGormRepository) SetQuantity(ctx context.Context, productID int64, variantID *int64, qty int64) error {
	return r.upsert(ctx, productID, variantID, map[string]interface{}{"available_quantity": qty})
}

// 在庫量（g）の現在値を設定（レコードが無ければ作る）
func (r *InventoryGormRepository) SetWeight(ctx context.Context, productID int64, variantID *int64, grams float64) error {
	return r.upsert(ctx, productID, variantID, map[string]interface{}{"available_weight_grams": grams})
}

func (r *InventoryGormRepository) upsert(ctx context.Context, productID int64, variantID *int64, values map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.Inventory
		q := tx.Where("product_id = ?", productID)
		err := withVariant(q, variantID).First(&inv).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			inv = model.Inventory{ProductID: productID, VariantID: variantID}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		res := tx.Model(&model.Inventory{}).Where("id = ?", inv.ID).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 在庫数が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseQuantityIfEnough(ctx context.Context, productID int64, variantID *int64, qty int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("product_id = ? AND available_quantity >= ?", productID, qty)

	res := withVariant(tx, variantID).
		Update("available_quantity", gorm.Expr("available_quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫量（g）が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseWeightIfEnough(ctx context.Context, productID int64, variantID *int64, grams float64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("product_id = ? AND available_weight_grams >= ?", productID, grams)

	res := withVariant(tx, variantID).
		Update("available_weight_grams", gorm.Expr("available_weight_grams - ?", grams))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫数戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseQuantity(ctx context.Context, productID int64, variantID *int64, qty int64) error {
	tx := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("product_id = ?", productID)

	res := withVariant(tx, variantID).
		Update("available_quantity", gorm.Expr("available_quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫量（g）戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseWeight(ctx context.Context, productID int64, variantID *int64, grams float64) error {
	tx := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("product_id = ?", productID)

	res := withVariant(tx, variantID).
		Update("available_weight_grams", gorm.Expr("available_weight_grams + ?", grams))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
