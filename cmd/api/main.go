package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/domain/stock"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

const serviceName = "storefront-api"

func main() {
	//.envは無くてもよい（本番は環境変数のみ）
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", serviceName).Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Variant{},
		&model.Inventory{},
		&model.InventoryAdjustment{},
		&model.Cart{},
		&model.CartItem{},
		&model.Address{},
		&model.Order{},
		&model.OrderItem{},
		&model.LoyaltyTransaction{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	//カートは1つの実装でCartRepositoryとCartItemRepositoryを兼ねる
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	loyaltyRepo := infraRepo.NewLoyaltyGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//在庫管理のON/OFF
	policy := stock.Policy{ManagementEnabled: cfg.StockManagementEnabled}
	if !policy.ManagementEnabled {
		log.Warn().Msg("stock management is disabled: all availability checks pass")
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, variantRepo, inventoryRepo, auditRepo)
	inventoryUC := usecase.NewInventoryUsecase(productRepo, variantRepo, inventoryRepo, policy)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, inventoryRepo, policy)
	orderUC := usecase.NewOrderUsecase(txManager, addressRepo, policy)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	loyaltyUC := usecase.NewLoyaltyUsecase(loyaltyRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, policy)

	//Handler生成
	cookieSecure := cfg.GoEnv != "dev"
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cookieSecure),
		Product:      handler.NewProductHandler(productUC),
		Inventory:    handler.NewInventoryHandler(inventoryUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Address:      handler.NewAddressHandler(addressUC),
		Loyalty:      handler.NewLoyaltyHandler(loyaltyUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, authUC),
	}

	e := server.New(cfg, userRepo, handlers)

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
