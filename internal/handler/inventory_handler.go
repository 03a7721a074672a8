package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入前の在庫確認API（ログイン不要）
type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// 商品のモードに合わせて requested_quantity / requested_weight_grams の
// どちらか片方だけを入れる。
type AvailabilityRequest struct {
	ProductID            int64    `json:"product_id"`
	VariantID            *int64   `json:"variant_id,omitempty"`
	RequestedQuantity    *int64   `json:"requested_quantity,omitempty"`
	RequestedWeightGrams *float64 `json:"requested_weight_grams,omitempty"`
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/inventory/availability", h.check)
}

func (h *InventoryHandler) check(c echo.Context) error {
	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CheckAvailability(c.Request().Context(), usecase.CheckAvailabilityInput{
		ProductID:            req.ProductID,
		VariantID:            req.VariantID,
		RequestedQuantity:    req.RequestedQuantity,
		RequestedWeightGrams: req.RequestedWeightGrams,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
