package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ポイント履歴の保存・集計を約束。
type LoyaltyRepository interface {
	//履歴を1件保存
	Create(ctx context.Context, tx model.LoyaltyTransaction) error

	//新しい順で履歴を返す
	ListByUserID(ctx context.Context, userID int64, limit int) ([]model.LoyaltyTransaction, error)

	//残高（履歴の合計）
	BalanceByUserID(ctx context.Context, userID int64) (int64, error)
}
