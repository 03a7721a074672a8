package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type loyaltyGormRepository struct {
	db *gorm.DB
}

func NewLoyaltyGormRepository(db *gorm.DB) repo.LoyaltyRepository {
	return &loyaltyGormRepository{db: db}
}

// 履歴を1件保存
func (r *loyaltyGormRepository) Create(ctx context.Context, tx model.LoyaltyTransaction) error {
	if err := r.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return err
	}
	return nil
}

// 新しい順で履歴を返す
func (r *loyaltyGormRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]model.LoyaltyTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var items []model.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return []model.LoyaltyTransaction{}, err
	}
	return items, nil
}

// 残高（履歴の合計）。履歴ゼロでも0を返す
func (r *loyaltyGormRepository) BalanceByUserID(ctx context.Context, userID int64) (int64, error) {
	var balance int64

	err := r.db.WithContext(ctx).
		Model(&model.LoyaltyTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&balance).Error

	if err != nil {
		return 0, err
	}
	return balance, nil
}
