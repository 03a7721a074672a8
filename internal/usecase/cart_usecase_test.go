package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	"storefront/internal/domain/stock"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Mocks
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64, snap repo.CartItemSnapshot) error {
	args := m.Called(ctx, cartID, productID, variantID, addQty, snap)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

var _ repo.CartRepository = (*CartRepoMock)(nil)
var _ repo.CartItemRepository = (*CartItemRepoMock)(nil)

func newCartUC(cartRepo *CartRepoMock, itemRepo *CartItemRepoMock, pRepo *InvProductRepoMock, iRepo *InvInventoryRepoMock, enabled bool) *usecase.CartUsecase {
	return usecase.NewCartUsecase(cartRepo, itemRepo, pRepo, iRepo, stock.Policy{ManagementEnabled: enabled})
}

// =====================
// AddToCart
// =====================

// カート既存分を確保量として足し、在庫10に8+5はNG
func TestCartUsecase_AddToCart_ExistingCommitmentExceedsStock(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, true)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1, Status: model.CartStatusActive}, nil)
	pRepo.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, Price: 500, StockMode: stock.ModeQuantity, IsActive: true}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 5, Quantity: 8}}, nil)
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(5), (*int64)(nil)).
		Return(model.Inventory{ProductID: 5, AvailableQuantity: 10}, nil)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 5, Quantity: 5})
	assertErrContains(t, err, "Only 2 pcs available")

	itemRepo.AssertNotCalled(t, "UpsertByCartAndProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// グラム管理：個数×1個あたり重量で判定する
func TestCartUsecase_AddToCart_WeightModeOK(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, true)

	coffee := model.Product{ID: 7, Name: "coffee beans", Price: 1200, StockMode: stock.ModeWeight, UnitWeightGrams: 200, IsActive: true}

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1, Status: model.CartStatusActive}, nil)
	pRepo.On("FindByID", mock.Anything, int64(7)).Return(coffee, nil)
	//既存2袋（400g）が確保済み
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 7, Quantity: 2, UnitPriceSnapshot: 1200, UnitWeightGrams: 200}}, nil).Once()
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(7), (*int64)(nil)).
		Return(model.Inventory{ProductID: 7, AvailableWeightGrams: 1000}, nil)
	//追加1袋（200g）で合計600g <= 1000g
	itemRepo.On("UpsertByCartAndProduct", mock.Anything, int64(10), int64(7), (*int64)(nil), int64(1),
		repo.CartItemSnapshot{UnitPrice: 1200, UnitWeightGrams: 200}).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 7, Quantity: 3, UnitPriceSnapshot: 1200, UnitWeightGrams: 200}}, nil)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 7, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(3600), out.Total)

	itemRepo.AssertExpectations(t)
}

// グラム管理：商品の重量が後から変わっても、既存行は行スナップショット基準で判定する
func TestCartUsecase_AddToCart_WeightSnapshotSurvivesProductEdit(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, true)

	//カートに入れた後で600g/個へ変更された商品
	coffee := model.Product{ID: 7, Name: "coffee beans", Price: 1200, StockMode: stock.ModeWeight, UnitWeightGrams: 600, IsActive: true}

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1, Status: model.CartStatusActive}, nil)
	pRepo.On("FindByID", mock.Anything, int64(7)).Return(coffee, nil)
	//既存行は200g/個のスナップショットを持つ
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 7, Quantity: 2, UnitPriceSnapshot: 1200, UnitWeightGrams: 200}}, nil).Once()
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(7), (*int64)(nil)).
		Return(model.Inventory{ProductID: 7, AvailableWeightGrams: 900}, nil)
	//追加1袋は200g扱い：確保400g+200g=600g <= 900g（現在値600gなら1000g>900gで弾かれてしまう）
	itemRepo.On("UpsertByCartAndProduct", mock.Anything, int64(10), int64(7), (*int64)(nil), int64(1),
		repo.CartItemSnapshot{UnitPrice: 1200, UnitWeightGrams: 600}).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 7, Quantity: 3, UnitPriceSnapshot: 1200, UnitWeightGrams: 200}}, nil)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 7, Quantity: 1})
	assert.NoError(t, err)

	itemRepo.AssertExpectations(t)
}

// グラム管理：在庫600gに3袋（600g）はぴったりOK、4袋はNG
func TestCartUsecase_AddToCart_WeightModeExceeds(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, true)

	coffee := model.Product{ID: 7, Price: 1200, StockMode: stock.ModeWeight, UnitWeightGrams: 200, IsActive: true}

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1, Status: model.CartStatusActive}, nil)
	pRepo.On("FindByID", mock.Anything, int64(7)).Return(coffee, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(7), (*int64)(nil)).
		Return(model.Inventory{ProductID: 7, AvailableWeightGrams: 600}, nil)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 7, Quantity: 4})
	assertErrContains(t, err, "Only 600g available")
}

func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	pRepo := new(InvProductRepoMock)
	uc := newCartUC(cartRepo, new(CartItemRepoMock), pRepo, new(InvInventoryRepoMock), true)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1}, nil)
	pRepo.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, IsActive: false}, nil)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 5, Quantity: 1})
	assertErrContains(t, err, "invalid")
}

// 在庫管理OFFならどれだけ積んでも通る
func TestCartUsecase_AddToCart_ManagementDisabled(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, false)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).
		Return(model.Cart{ID: 10, UserID: 1}, nil)
	pRepo.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, Price: 100, StockMode: stock.ModeQuantity, IsActive: true}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil).Once()
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(5), (*int64)(nil)).
		Return(model.Inventory{}, repo.ErrNotFound)
	itemRepo.On("UpsertByCartAndProduct", mock.Anything, int64(10), int64(5), (*int64)(nil), int64(500),
		repo.CartItemSnapshot{UnitPrice: 100}).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(10)).
		Return([]model.CartItem{{ID: 1, CartID: 10, ProductID: 5, Quantity: 500, UnitPriceSnapshot: 100}}, nil)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 5, Quantity: 500})
	assert.NoError(t, err)
	assert.Equal(t, int64(50000), out.Total)
}

// =====================
// UpdateCartItem
// =====================

func TestCartUsecase_UpdateCartItem_ExceedsStock(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	pRepo := new(InvProductRepoMock)
	iRepo := new(InvInventoryRepoMock)
	uc := newCartUC(cartRepo, itemRepo, pRepo, iRepo, true)

	itemRepo.On("IsOwnedByUser", mock.Anything, int64(3), int64(1)).Return(true, nil)
	itemRepo.On("FindByID", mock.Anything, int64(3)).
		Return(model.CartItem{ID: 3, CartID: 10, ProductID: 5, Quantity: 2}, nil)
	pRepo.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, StockMode: stock.ModeQuantity, IsActive: true}, nil)
	iRepo.On("FindByProductAndVariant", mock.Anything, int64(5), (*int64)(nil)).
		Return(model.Inventory{ProductID: 5, AvailableQuantity: 3}, nil)

	_, err := uc.UpdateCartItem(ctx, 1, 3, usecase.UpdateCartItemInput{Quantity: 4})
	assertErrContains(t, err, "Only 3 pcs available")
}

func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()

	itemRepo := new(CartItemRepoMock)
	uc := newCartUC(new(CartRepoMock), itemRepo, new(InvProductRepoMock), new(InvInventoryRepoMock), true)

	itemRepo.On("IsOwnedByUser", mock.Anything, int64(3), int64(1)).Return(false, nil)

	_, err := uc.UpdateCartItem(ctx, 1, 3, usecase.UpdateCartItemInput{Quantity: 1})
	assertErrContains(t, err, "not found")
}
