package server

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

func registerRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	//公開API
	h.Product.RegisterRoutes(e)
	h.Inventory.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, cfg, userRepo)

	//ログイン必須
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Loyalty.RegisterRoutes(e, cfg, userRepo)

	me := e.Group("/me")
	me.Use(middleware.AuthJWT(cfg))
	me.Use(middleware.TokenVersionGuard(userRepo))
	h.Address.RegisterRoutes(me)

	//管理者
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)
}
