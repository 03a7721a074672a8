package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

// Handlers はルーティングに渡すハンドラ一式。
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Inventory    *handler.InventoryHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Address      *handler.AddressHandler
	Loyalty      *handler.LoyaltyHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
}

// Newはechoを組み立てて返す（起動はmain側）。
func New(cfg config.Config, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowCredentials: true,
	}))

	registerRoutes(e, cfg, userRepo, h)

	return e
}
