package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 在庫判定は追加・数量変更のたびに stock.Evaluate で行う。
type CartUsecase struct {
	cartRepo      repo.CartRepository
	cartItemRepo  repo.CartItemRepository
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	policy        stock.Policy
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	policy stock.Policy,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:      cartRepo,
		cartItemRepo:  cartItemRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		policy:        policy,
	}
}

// price は unit_price_snapshot（追加時点の価格）を返します。
type CartItemResponse struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	VariantID       *int64  `json:"variant_id,omitempty"`
	Name            string  `json:"name"`
	Price           int64   `json:"price"`
	Quantity        int64   `json:"quantity"`
	UnitWeightGrams float64 `json:"unit_weight_grams,omitempty"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一(商品, バリアント)は数量加算）。
// 既存のカート分を確保量として渡し、追加後の合計で在庫判定する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	// 既存数量を ListByCartID で調べる
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	existingWeight := p.UnitWeightGrams
	for _, it := range items {
		if it.ProductID == in.ProductID && sameVariant(it.VariantID, in.VariantID) {
			existingQty = it.Quantity
			if it.UnitWeightGrams > 0 {
				existingWeight = it.UnitWeightGrams
			}
			break
		}
	}

	rec, err := u.loadRecord(ctx, in.ProductID, in.VariantID)
	if err != nil {
		return CartResponse{}, err
	}

	res, err := stock.Evaluate(
		u.policy,
		p.StockMode,
		rec,
		requestForItem(p.StockMode, in.Quantity, existingWeight),
		commitmentForItem(p.StockMode, existingQty, existingWeight),
	)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if !res.SufficientForTotal {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, availabilityMessage(p.StockMode, res))
	}

	// Upsert（同一商品は加算）
	// unit_price_snapshot は「追加時点の価格」を渡す
	snap := repo.CartItemSnapshot{UnitPrice: p.Price}
	if p.StockMode == stock.ModeWeight {
		snap.UnitWeightGrams = p.UnitWeightGrams
	}
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.VariantID, in.Quantity, snap); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）。
// 新数量は行ごと置き換えなので、確保量ゼロで合計判定する。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	rec, err := u.loadRecord(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return CartResponse{}, err
	}

	//行は置き換えなので確保量ゼロ。重量は行スナップショット基準
	lineWeight := item.UnitWeightGrams
	if lineWeight == 0 {
		lineWeight = p.UnitWeightGrams
	}
	res, err := stock.Evaluate(u.policy, p.StockMode, rec, requestForItem(p.StockMode, in.Quantity, lineWeight), stock.Commitment{})
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if !res.SufficientForTotal {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, availabilityMessage(p.StockMode, res))
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

func (u *CartUsecase) loadRecord(ctx context.Context, productID int64, variantID *int64) (*stock.Record, error) {
	inv, err := u.inventoryRepo.FindByProductAndVariant(ctx, productID, variantID)
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

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			VariantID:       it.VariantID,
			Name:            p.Name,
			Price:           it.UnitPriceSnapshot,
			Quantity:        it.Quantity,
			UnitWeightGrams: it.UnitWeightGrams,
		})

		total += it.UnitPriceSnapshot * it.Quantity
	}

	return CartResponse{Items: respItems, Total: total}, nil
}

func sameVariant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
