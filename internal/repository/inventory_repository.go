package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// (product, variant)の在庫レコードを1件取得。無ければErrNotFound
	FindByProductAndVariant(ctx context.Context, productID int64, variantID *int64) (model.Inventory, error)

	// 在庫の現在値を設定（無ければレコード作成）
	SetQuantity(ctx context.Context, productID int64, variantID *int64, qty int64) error
	SetWeight(ctx context.Context, productID int64, variantID *int64, grams float64) error

	// 在庫が足りるときだけ減算
	DecreaseQuantityIfEnough(ctx context.Context, productID int64, variantID *int64, qty int64) (bool, error)
	DecreaseWeightIfEnough(ctx context.Context, productID int64, variantID *int64, grams float64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseQuantity(ctx context.Context, productID int64, variantID *int64, qty int64) error
	IncreaseWeight(ctx context.Context, productID int64, variantID *int64, grams float64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
