//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/api` 生成wire_gen.go;
// 未生成前main使用build.go中的手动组装,两者的依赖图保持一致。

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	appcheckout "github.com/xiebiao/poscart/internal/application/checkout"
	apppricelist "github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/internal/infrastructure/backend"
	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/poscart/internal/interface/http/handler"
	"github.com/xiebiao/poscart/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、门店ERP客户端
// backend.Client同时实现目录、定价、规格、促销四个远程接口
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	provideRedisClient,
	backend.NewClient,
	wire.Bind(new(catalog.Gateway), new(*backend.Client)),
	wire.Bind(new(pricing.Gateway), new(*backend.Client)),
	wire.Bind(new(pricing.OptionsGateway), new(*backend.Client)),
	wire.Bind(new(discount.PromoValidator), new(*backend.Client)),
)

// repositorySet 本地缓存与会话快照
var repositorySet = wire.NewSet(
	mysql.NewTxManager,
	mysql.NewCatalogCacheRepository,
	mysql.NewPriceListRepository,
	provideSnapshotStore,
)

// sessionSet 会话管理及用例共享的组件
var sessionSet = wire.NewSet(
	session.NewManager,
	provideLoader,
	provideProvider,
	provideCalculator,
)

// applicationSet 全部用例
var applicationSet = wire.NewSet(
	appcart.NewOpenSessionUseCase,
	appcart.NewGetSessionUseCase,
	appcart.NewGetCartUseCase,
	appcart.NewAddToCartUseCase,
	appcart.NewUpdateLineUseCase,
	appcart.NewRemoveLineUseCase,
	appcart.NewClearCartUseCase,
	appcatalog.NewListCatalogUseCase,
	appcatalog.NewReloadCatalogUseCase,
	appcatalog.NewGetVariantsUseCase,
	appcatalog.NewGetOptionsUseCase,
	appcatalog.NewApplyStockUpdatesUseCase,
	apppricelist.NewListPriceListsUseCase,
	provideSwitchPriceListUseCase,
	appcheckout.NewQuoteUseCase,
	appcheckout.NewApplyPromoUseCase,
	appcheckout.NewRemovePromoUseCase,
)

// handlerSet HTTP处理器与Gin引擎
var handlerSet = wire.NewSet(
	handler.NewSessionHandler,
	handler.NewCatalogHandler,
	handler.NewPriceListHandler,
	handler.NewCartHandler,
	handler.NewCheckoutHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideGinEngine,
)

// backgroundSet 库存刷新、库存推送订阅
var backgroundSet = wire.NewSet(
	provideStockRefresher,
	provideStockListener,
	provideConsumerConfig,
)

// InitializeApp 初始化整个应用
// cleanup关闭Redis连接
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		sessionSet,
		applicationSet,
		handlerSet,
		backgroundSet,
		newApp,
	)
	return nil, nil, nil
}
