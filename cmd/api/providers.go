package main

import (
	"context"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	appcheckout "github.com/xiebiao/poscart/internal/application/checkout"
	apppricelist "github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/internal/infrastructure/messaging"
	"github.com/xiebiao/poscart/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/poscart/internal/interface/http/router"
	"github.com/xiebiao/poscart/pkg/mq"
)

// ========================================
// Custom Providers
// ========================================
// 构造函数需要从Config中提取参数时,在这里写一层Provider

// provideRedisClient 创建Redis连接(启动时Ping)
func provideRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis failed", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// provideSnapshotStore 快照保留时间与会话空闲过期时间一致
func provideSnapshotStore(client *goredis.Client, cfg *config.Config) cart.SnapshotStore {
	return redis.NewSnapshotStore(client, cfg.Terminal.SessionTTL)
}

func provideLoader(gateway catalog.Gateway, cache catalog.CacheRepository, cfg *config.Config, logger *zap.Logger) *appcatalog.Loader {
	return appcatalog.NewLoader(gateway, cache, cfg.Terminal.Warehouse, cfg.Terminal.CatalogLimit, logger)
}

func provideProvider(gateway pricing.Gateway, repo pricing.PriceListRepository, cfg *config.Config, logger *zap.Logger) *apppricelist.Provider {
	return apppricelist.NewProvider(gateway, repo, cfg.Terminal.POSProfile, logger)
}

func provideSwitchPriceListUseCase(
	sessions *session.Manager,
	provider *apppricelist.Provider,
	loader *appcatalog.Loader,
	cfg *config.Config,
	logger *zap.Logger,
) *apppricelist.SwitchPriceListUseCase {
	return apppricelist.NewSwitchPriceListUseCase(sessions, provider, loader, cfg.Terminal.SwitchTimeout, logger)
}

func provideStockRefresher(sessions *session.Manager, loader *appcatalog.Loader, cfg *config.Config, logger *zap.Logger) *appcatalog.StockRefresher {
	return appcatalog.NewStockRefresher(sessions, loader, cfg.Terminal.StockRefreshInterval, logger)
}

// provideCalculator 满件折扣规则与税率来自终端配置
func provideCalculator(validator discount.PromoValidator, cfg *config.Config, logger *zap.Logger) *appcheckout.Calculator {
	arbiter := discount.NewArbiter(discount.Rule{
		MinQty:  cfg.Terminal.AutoDiscountMinQty,
		Percent: cfg.Terminal.AutoPercent(),
	})
	return appcheckout.NewCalculator(validator, arbiter, cfg.Terminal.Tax(), logger)
}

func provideStockListener(apply *appcatalog.ApplyStockUpdatesUseCase, cfg *config.Config, logger *zap.Logger) *messaging.StockListener {
	return messaging.NewStockListener(apply, cfg.Terminal.Warehouse, logger)
}

// provideConsumerConfig 库存推送订阅(mq.enabled=false时不连接)
func provideConsumerConfig(cfg *config.Config) mq.ConsumerConfig {
	return mq.ConsumerConfig{
		URL:         cfg.MQ.URL,
		Exchange:    cfg.MQ.Exchange,
		Queue:       cfg.MQ.Queue,
		RoutingKeys: cfg.MQ.RoutingKeys,
		Prefetch:    16,
	}
}

// provideGinEngine 创建Gin引擎并注册路由
func provideGinEngine(cfg *config.Config, handlers router.Handlers, logger *zap.Logger) *gin.Engine {
	return router.New(handlers, router.Options{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}, logger)
}
