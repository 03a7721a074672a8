package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	policy    stock.Policy
}

func NewOrderUsecase(tx repo.TransactionManager, addresses repo.AddressRepository, policy stock.Policy) *OrderUsecase {
	return &OrderUsecase{tx: tx, addresses: addresses, policy: policy}
}

type PlaceOrderInput struct {
	AddressID      int64
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID       int64   `json:"product_id"`
	VariantID       *int64  `json:"variant_id,omitempty"`
	Name            string  `json:"name"`
	Price           int64   `json:"price"`
	Quantity        int64   `json:"quantity"`
	UnitWeightGrams float64 `json:"unit_weight_grams,omitempty"`
}

type OrderOutput struct {
	ID           int64             `json:"id"`
	UserID       int64             `json:"user_id"`
	Status       string            `json:"status"`
	TotalPrice   int64             `json:"total_price"`
	EarnedPoints int64             `json:"earned_points"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderItemOutput `json:"items"`
}

// 注文金額100につき1ポイント
const loyaltyEarnUnit int64 = 100

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//所有チェック（他人の住所なら403）
	if addr.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		//ACTIVEカート取得
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//明細ごとに確定時の再判定→在庫減算
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total int64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound || (err == nil && !p.IsActive) {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := u.reserveLine(ctx, r, p, ci); err != nil {
				return err
			}

			//スナップショット
			now := time.Now()
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				VariantID:           ci.VariantID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   ci.UnitPriceSnapshot,
				UnitWeightGrams:     ci.UnitWeightGrams,
				Quantity:            ci.Quantity,
				CreatedAt:           now,
			})

			total += ci.UnitPriceSnapshot * ci.Quantity
		}

		// 注文作成
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			AddressID:      in.AddressID,
			Status:         model.OrderStatusPending,
			TotalPrice:     total,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if errors.Is(err, repo.ErrDuplicateKey) {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//ポイント付与（EARN）
		earned := total / loyaltyEarnUnit
		if earned > 0 {
			if err := r.Loyalty().Create(ctx, model.LoyaltyTransaction{
				UserID:    userID,
				OrderID:   &orderID,
				Points:    earned,
				Kind:      model.LoyaltyKindEarn,
				CreatedAt: now,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//カートをCHECKED_OUTにして、明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Order{
			ID:         orderID,
			UserID:     userID,
			AddressID:  in.AddressID,
			Status:     model.OrderStatusPending,
			TotalPrice: total,
			CreatedAt:  now,
		}
		out = toOrderOutput(created, orderItems)
		out.EarnedPoints = earned
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 明細1件ぶんの在庫を再判定して減算する。
// 減算は条件付きUPDATEなので、同時注文でも取りすぎない。
func (u *OrderUsecase) reserveLine(ctx context.Context, r repo.TxRepos, p model.Product, ci model.CartItem) error {
	rec, err := loadTxRecord(ctx, r, ci.ProductID, ci.VariantID)
	if err != nil {
		return err
	}

	//判定も減算も行スナップショットの重量で揃える。
	//商品の現在値を混ぜると、管理者が重量を変えた後の注文がズレる
	lineWeight := ci.UnitWeightGrams
	if lineWeight == 0 {
		lineWeight = p.UnitWeightGrams
	}

	res, err := stock.Evaluate(u.policy, p.StockMode, rec, requestForItem(p.StockMode, ci.Quantity, lineWeight), stock.Commitment{})
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if !res.SufficientForTotal {
		return NewHTTPError(http.StatusBadRequest, availabilityMessage(p.StockMode, res))
	}

	//管理OFFのときは減算しない（追跡しない約束）
	if !u.policy.ManagementEnabled {
		return nil
	}

	var ok bool
	if p.StockMode == stock.ModeWeight {
		ok, err = r.Inventory().DecreaseWeightIfEnough(ctx, ci.ProductID, ci.VariantID, float64(ci.Quantity)*lineWeight)
	} else {
		ok, err = r.Inventory().DecreaseQuantityIfEnough(ctx, ci.ProductID, ci.VariantID, ci.Quantity)
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "out of stock")
	}
	return nil
}

func loadTxRecord(ctx context.Context, r repo.TxRepos, productID int64, variantID *int64) (*stock.Record, error) {
	inv, err := r.Inventory().FindByProductAndVariant(ctx, productID, variantID)
	if err == repo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return &stock.Record{
		Quantity:    inv.AvailableQuantity,
		WeightGrams: inv.AvailableWeightGrams,
	}, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングでまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:       it.ProductID,
			VariantID:       it.VariantID,
			Name:            it.ProductNameSnapshot,
			Price:           it.UnitPriceSnapshot,
			Quantity:        it.Quantity,
			UnitWeightGrams: it.UnitWeightGrams,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		Items:      outItems,
	}
}
