package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	policy    stock.Policy
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository, policy stock.Policy) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, policy: policy}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
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

// ステータス更新（CANCELED なら在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := strings.TrimSpace(in.Status)
	switch newStatus {
	case "PENDING", "PAID", "SHIPPED", "CANCELED":
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if string(o.Status) == newStatus {
			return nil
		}
		// 終端ガード
		if o.Status == model.OrderStatusCanceled {
			return NewHTTPError(http.StatusBadRequest, "cannot change canceled order")
		}
		if o.Status == model.OrderStatusShipped {
			return NewHTTPError(http.StatusBadRequest, "cannot change shipped order")
		}

		// newStatusがCANCELEDのときだけ在庫戻し。
		// 管理OFFなら確定時に減算していないので、戻しもしない
		if newStatus == "CANCELED" && u.policy.ManagementEnabled {
			if o.Status == model.OrderStatusPending || o.Status == model.OrderStatusPaid {
				items, err := r.OrderItems().ListByOrderID(ctx, orderID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}

				for _, it := range items {
					if err := restockLine(ctx, r, it); err != nil {
						return err
					}
				}
			}
		}

		// ステータス更新
		beforeStatus := string(o.Status)
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatus(newStatus)); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + beforeStatus + `"}`
		afterJSON := `{"status":"` + newStatus + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

// 明細1件ぶんの在庫を戻す。モードは商品で判定する。
// 商品が削除済みのときだけ重量スナップショットの有無で代用する。
func restockLine(ctx context.Context, r repo.TxRepos, it model.OrderItem) error {
	weightMode := it.UnitWeightGrams > 0
	lineWeight := it.UnitWeightGrams

	p, err := r.Products().FindByID(ctx, it.ProductID)
	if err == nil {
		weightMode = p.StockMode == stock.ModeWeight
		if lineWeight == 0 {
			lineWeight = p.UnitWeightGrams
		}
	} else if err != repo.ErrNotFound {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if weightMode {
		//確定時の減算と同じ量（個数×1個あたり重量）を戻す
		grams := float64(it.Quantity) * lineWeight
		if err := r.Inventory().IncreaseWeight(ctx, it.ProductID, it.VariantID, grams); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	}
	if err := r.Inventory().IncreaseQuantity(ctx, it.ProductID, it.VariantID, it.Quantity); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
