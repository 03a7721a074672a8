package usecase

import (
	"context"
	"net/http"
	"time"

	repo "storefront/internal/repository"
)

// LoyaltyUsecase はログインユーザーのポイント残高と履歴を返す。
type LoyaltyUsecase struct {
	loyaltyRepo repo.LoyaltyRepository
}

func NewLoyaltyUsecase(loyaltyRepo repo.LoyaltyRepository) *LoyaltyUsecase {
	return &LoyaltyUsecase{loyaltyRepo: loyaltyRepo}
}

type LoyaltyEntryOutput struct {
	ID        int64     `json:"id"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Points    int64     `json:"points"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type LoyaltyOutput struct {
	Balance int64                `json:"balance"`
	History []LoyaltyEntryOutput `json:"history"`
}

func (u *LoyaltyUsecase) GetMyLoyalty(ctx context.Context, userID int64) (LoyaltyOutput, error) {
	if userID <= 0 {
		return LoyaltyOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	balance, err := u.loyaltyRepo.BalanceByUserID(ctx, userID)
	if err != nil {
		return LoyaltyOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//履歴は直近50件で固定
	txs, err := u.loyaltyRepo.ListByUserID(ctx, userID, 50)
	if err != nil {
		return LoyaltyOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	history := make([]LoyaltyEntryOutput, 0, len(txs))
	for _, t := range txs {
		history = append(history, LoyaltyEntryOutput{
			ID:        t.ID,
			OrderID:   t.OrderID,
			Points:    t.Points,
			Kind:      string(t.Kind),
			CreatedAt: t.CreatedAt,
		})
	}

	return LoyaltyOutput{Balance: balance, History: history}, nil
}
