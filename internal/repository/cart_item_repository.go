package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// Upsertに渡すスナップショット値
type CartItemSnapshot struct {
	UnitPrice       int64
	UnitWeightGrams float64
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一(商品, バリアント)はプラス
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64, snap CartItemSnapshot) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
