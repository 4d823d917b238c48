package main

import (
	"context"

	"go.uber.org/zap"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	appcheckout "github.com/xiebiao/poscart/internal/application/checkout"
	apppricelist "github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/infrastructure/backend"
	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/poscart/internal/interface/http/handler"
	"github.com/xiebiao/poscart/internal/interface/http/router"
)

// buildApp 手动组装依赖
// 组装顺序与wire.go中的ProviderSet一致:
// 基础设施 → 仓储 → 会话 → 用例 → Handler → Gin引擎
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	// 1. 基础设施
	db, err := mysql.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	redisClient, cleanup, err := provideRedisClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	client := backend.NewClient(cfg, logger)

	// 2. 仓储
	tx := mysql.NewTxManager(db)
	catalogCache := mysql.NewCatalogCacheRepository(db, tx)
	priceListRepo := mysql.NewPriceListRepository(db, tx)
	snapshots := provideSnapshotStore(redisClient, cfg)

	// 3. 会话与共享组件
	sessions := session.NewManager(snapshots, logger)
	loader := provideLoader(client, catalogCache, cfg, logger)
	provider := provideProvider(client, priceListRepo, cfg, logger)
	calculator := provideCalculator(client, cfg, logger)

	// 4. 用例
	applyStock := appcatalog.NewApplyStockUpdatesUseCase(sessions)
	handlers := router.Handlers{
		Session: handler.NewSessionHandler(
			appcart.NewOpenSessionUseCase(sessions, provider, loader, logger),
			appcart.NewGetSessionUseCase(sessions, provider),
		),
		Catalog: handler.NewCatalogHandler(
			appcatalog.NewListCatalogUseCase(sessions, loader),
			appcatalog.NewReloadCatalogUseCase(sessions, loader),
			appcatalog.NewGetVariantsUseCase(sessions, loader, logger),
			appcatalog.NewGetOptionsUseCase(sessions, loader, client, logger),
		),
		PriceList: handler.NewPriceListHandler(
			apppricelist.NewListPriceListsUseCase(sessions, provider),
			provideSwitchPriceListUseCase(sessions, provider, loader, cfg, logger),
		),
		Cart: handler.NewCartHandler(
			appcart.NewGetCartUseCase(sessions),
			appcart.NewAddToCartUseCase(sessions, provider, loader, client, logger),
			appcart.NewUpdateLineUseCase(sessions),
			appcart.NewRemoveLineUseCase(sessions),
			appcart.NewClearCartUseCase(sessions),
		),
		Checkout: handler.NewCheckoutHandler(
			appcheckout.NewQuoteUseCase(sessions, calculator),
			appcheckout.NewApplyPromoUseCase(sessions, calculator),
			appcheckout.NewRemovePromoUseCase(sessions, calculator),
		),
	}

	// 5. 接口层与后台任务
	app := newApp(
		cfg,
		logger,
		provideGinEngine(cfg, handlers, logger),
		sessions,
		provideStockRefresher(sessions, loader, cfg, logger),
		provideStockListener(applyStock, cfg, logger),
		provideConsumerConfig(cfg),
	)
	return app, cleanup, nil
}
