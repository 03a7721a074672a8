package usecase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
)

// InventoryUsecase は購入前の在庫確認（/inventory/availability）を担当する。
// 判定本体は stock.Evaluate に寄せて、ここはI/Oと変換だけ。
type InventoryUsecase struct {
	productRepo   repo.ProductRepository
	variantRepo   repo.VariantRepository
	inventoryRepo repo.InventoryRepository
	policy        stock.Policy
}

func NewInventoryUsecase(
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
	inventoryRepo repo.InventoryRepository,
	policy stock.Policy,
) *InventoryUsecase {
	return &InventoryUsecase{
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		inventoryRepo: inventoryRepo,
		policy:        policy,
	}
}

type CheckAvailabilityInput struct {
	ProductID            int64
	VariantID            *int64
	RequestedQuantity    *int64
	RequestedWeightGrams *float64
}

// 判定結果のレスポンス。Headroomは表示用に0でクランプ済み。
type AvailabilityOutput struct {
	Available          bool    `json:"available"`
	SufficientForTotal bool    `json:"sufficient_for_total"`
	Headroom           float64 `json:"headroom"`
	AvailableAmount    float64 `json:"available_amount"`
	Reason             string  `json:"reason"`
	Message            string  `json:"message"`
}

func (u *InventoryUsecase) CheckAvailability(ctx context.Context, in CheckAvailabilityInput) (AvailabilityOutput, error) {
	if in.ProductID <= 0 {
		return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		log.Warn().Err(err).Int64("product_id", in.ProductID).Msg("availability: product lookup failed")
		return AvailabilityOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if in.VariantID != nil {
		v, err := u.variantRepo.FindByID(ctx, *in.VariantID)
		if err == repo.ErrNotFound {
			return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			log.Warn().Err(err).Int64("variant_id", *in.VariantID).Msg("availability: variant lookup failed")
			return AvailabilityOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if v.ProductID != in.ProductID || !v.IsActive {
			return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
	}

	//モードに合う方の量フィールドだけを受ける
	var req stock.Request
	switch p.StockMode {
	case stock.ModeQuantity:
		if in.RequestedQuantity == nil || in.RequestedWeightGrams != nil {
			return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "requested_quantity required")
		}
		req = stock.QuantityRequest(*in.RequestedQuantity)
	case stock.ModeWeight:
		if in.RequestedWeightGrams == nil || in.RequestedQuantity != nil {
			return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "requested_weight_grams required")
		}
		req = stock.WeightRequest(*in.RequestedWeightGrams)
	default:
		return AvailabilityOutput{}, NewHTTPError(http.StatusInternalServerError, "unknown stock mode")
	}

	rec, err := u.loadRecord(ctx, in.ProductID, in.VariantID)
	if err != nil {
		return AvailabilityOutput{}, err
	}

	//単発の確認なのでカート内の確保分は無し
	res, err := stock.Evaluate(u.policy, p.StockMode, rec, req, stock.Commitment{})
	if err != nil {
		return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	return AvailabilityOutput{
		Available:          res.Available,
		SufficientForTotal: res.SufficientForTotal,
		Headroom:           res.DisplayHeadroom(),
		AvailableAmount:    res.AvailableAmount,
		Reason:             string(res.Reason),
		Message:            availabilityMessage(p.StockMode, res),
	}, nil
}

// 在庫レコードを取得。行が無ければnil（在庫ゼロ扱い）。
func (u *InventoryUsecase) loadRecord(ctx context.Context, productID int64, variantID *int64) (*stock.Record, error) {
	inv, err := u.inventoryRepo.FindByProductAndVariant(ctx, productID, variantID)
	if err == repo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("availability: inventory lookup failed")
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return &stock.Record{
		Quantity:    inv.AvailableQuantity,
		WeightGrams: inv.AvailableWeightGrams,
	}, nil
}

// 理由コードから表示メッセージを作る。
func availabilityMessage(mode stock.Mode, res stock.Result) string {
	switch res.Reason {
	case stock.ReasonOK, stock.ReasonDisabled:
		return "in stock"
	case stock.ReasonNoRecord:
		return "out of stock"
	case stock.ReasonAtMaximum:
		return "stock limit reached"
	case stock.ReasonInsufficient:
		if mode == stock.ModeWeight {
			return fmt.Sprintf("Only %gg available", res.DisplayHeadroom())
		}
		return fmt.Sprintf("Only %d pcs available", int64(res.DisplayHeadroom()))
	}
	return ""
}

// カート既存分を確保量へ変換する。スナップショットの重量を使う。
func commitmentForItem(mode stock.Mode, units int64, unitWeightGrams float64) stock.Commitment {
	if mode == stock.ModeWeight {
		return stock.WeightCommitment(units, unitWeightGrams)
	}
	return stock.QuantityCommitment(units)
}

// カート行の必要量へ変換する。判定と減算がズレないよう、
// 重量は商品の現在値ではなく行スナップショットを使う。
func requestForItem(mode stock.Mode, units int64, unitWeightGrams float64) stock.Request {
	if mode == stock.ModeWeight {
		return stock.WeightRequest(float64(units) * unitWeightGrams)
	}
	return stock.QuantityRequest(units)
}
