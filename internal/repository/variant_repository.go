package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// バリアントの取得だけを約束（作成・更新は管理画面の将来分）。
type VariantRepository interface {
	FindByID(ctx context.Context, variantID int64) (model.Variant, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Variant, error)
}
