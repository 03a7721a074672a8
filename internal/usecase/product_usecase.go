package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	variantRepo   repo.VariantRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 詳細はバリアント一覧も返す
type ProductDetailOutput struct {
	Product  model.Product   `json:"product"`
	Variants []model.Variant `json:"variants"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	vs, err := u.variantRepo.ListByProductID(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductDetailOutput{Product: p, Variants: vs}, nil
}

type AdminCreateProductInput struct {
	Name            string
	Description     string
	Price           int64
	StockMode       string
	UnitWeightGrams float64
	IsActive        bool
}

func validateStockMode(in AdminCreateProductInput) (stock.Mode, error) {
	mode := stock.Mode(strings.TrimSpace(in.StockMode))
	if mode == "" {
		mode = stock.ModeQuantity
	}
	switch mode {
	case stock.ModeQuantity, stock.ModeWeight:
	default:
		return "", NewHTTPError(http.StatusBadRequest, "invalid stock_mode")
	}
	if mode == stock.ModeWeight && in.UnitWeightGrams <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "unit_weight_grams must be > 0")
	}
	if mode == stock.ModeQuantity && in.UnitWeightGrams != 0 {
		return "", NewHTTPError(http.StatusBadRequest, "unit_weight_grams not allowed for quantity mode")
	}
	return mode, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	mode, err := validateStockMode(in)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		StockMode:       mode,
		UnitWeightGrams: in.UnitWeightGrams,
		IsActive:        in.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p.ID, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminCreateProductInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	mode, err := validateStockMode(in)
	if err != nil {
		return err
	}

	err = u.productRepo.Update(ctx, model.Product{
		ID:              productID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		StockMode:       mode,
		UnitWeightGrams: in.UnitWeightGrams,
		IsActive:        in.IsActive,
		UpdatedAt:       time.Now(),
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AdminUpdateInventoryInput struct {
	VariantID      *int64
	NewQuantity    *int64
	NewWeightGrams *float64
	Reason         string
}

// 在庫の現在値を直接セットする（モードに合う方のフィールドだけを受ける）。
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, in AdminUpdateInventoryInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.VariantID != nil {
		v, err := u.variantRepo.FindByID(ctx, *in.VariantID)
		if err == repo.ErrNotFound || (err == nil && v.ProductID != productID) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	//変更前の在庫（無ければ0扱い）
	var beforeQty int64
	var beforeGrams float64
	inv, err := u.inventoryRepo.FindByProductAndVariant(ctx, productID, in.VariantID)
	if err == nil {
		beforeQty = inv.AvailableQuantity
		beforeGrams = inv.AvailableWeightGrams
	} else if err != repo.ErrNotFound {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var beforeJSON, afterJSON string
	adj := model.InventoryAdjustment{
		ProductID:   productID,
		VariantID:   in.VariantID,
		AdminUserID: adminUserID,
		Reason:      strings.TrimSpace(in.Reason),
		CreatedAt:   time.Now(),
	}

	switch p.StockMode {
	case stock.ModeQuantity:
		if in.NewQuantity == nil {
			return NewHTTPError(http.StatusBadRequest, "quantity required")
		}
		if in.NewWeightGrams != nil {
			return NewHTTPError(http.StatusBadRequest, "weight_grams not allowed for quantity mode")
		}
		if *in.NewQuantity < 0 {
			return NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
		}
		if err := u.inventoryRepo.SetQuantity(ctx, productID, in.VariantID, *in.NewQuantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		adj.QuantityDelta = *in.NewQuantity - beforeQty
		beforeJSON = fmt.Sprintf(`{"quantity":%d}`, beforeQty)
		afterJSON = fmt.Sprintf(`{"quantity":%d}`, *in.NewQuantity)

	case stock.ModeWeight:
		if in.NewWeightGrams == nil {
			return NewHTTPError(http.StatusBadRequest, "weight_grams required")
		}
		if in.NewQuantity != nil {
			return NewHTTPError(http.StatusBadRequest, "quantity not allowed for weight mode")
		}
		if *in.NewWeightGrams < 0 {
			return NewHTTPError(http.StatusBadRequest, "weight_grams must be >= 0")
		}
		if err := u.inventoryRepo.SetWeight(ctx, productID, in.VariantID, *in.NewWeightGrams); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		adj.WeightDeltaGrams = *in.NewWeightGrams - beforeGrams
		beforeJSON = fmt.Sprintf(`{"weight_grams":%g}`, beforeGrams)
		afterJSON = fmt.Sprintf(`{"weight_grams":%g}`, *in.NewWeightGrams)

	default:
		return NewHTTPError(http.StatusInternalServerError, "unknown stock mode")
	}

	//履歴を作成（差分）
	if err := u.inventoryRepo.CreateAdjustment(ctx, adj); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログを作成（在庫更新）
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}
