package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// ApplyStockUpdatesUseCase 把库存变化应用到全部在线会话(库存推送消息使用)
// 变体的变化同时刷新所属模板的售罄汇总
type ApplyStockUpdatesUseCase struct {
	sessions *session.Manager
}

// NewApplyStockUpdatesUseCase 创建库存更新用例
func NewApplyStockUpdatesUseCase(sessions *session.Manager) *ApplyStockUpdatesUseCase {
	return &ApplyStockUpdatesUseCase{sessions: sessions}
}

// Execute 应用库存变化,返回受影响的条目数(跨会话累计)
func (uc *ApplyStockUpdatesUseCase) Execute(ctx context.Context, updates []catalog.StockUpdate) int {
	touched := 0
	uc.sessions.Each(ctx, func(st *session.State) error {
		if !st.CatalogLoaded {
			return nil
		}
		for _, u := range updates {
			touched += len(st.Index.ApplyStockUpdate(u))
		}
		return nil
	})
	metrics.IncStockUpdate("push", len(updates))
	return touched
}

// StockRefresher 定时刷新库存
// 设计说明:
// 1. 每个周期对每个已加载目录的会话重新拉取目录,只更新库存与缺货标记
// 2. 拉取使用会话在执行时刻的价格表,不使用调度时的值
// 3. 刷新持有会话锁,不会与价格表切换交错
// 4. 远程失败时跳过本轮,不修改任何数据
type StockRefresher struct {
	sessions *session.Manager
	loader   *Loader
	interval time.Duration
	logger   *zap.Logger
}

// NewStockRefresher 创建库存刷新器
func NewStockRefresher(sessions *session.Manager, loader *Loader, interval time.Duration, logger *zap.Logger) *StockRefresher {
	return &StockRefresher{
		sessions: sessions,
		loader:   loader,
		interval: interval,
		logger:   logger,
	}
}

// Run 按周期刷新,ctx取消时返回
func (r *StockRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("stock refresher started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stock refresher stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll 刷新全部会话
func (r *StockRefresher) RefreshAll(ctx context.Context) {
	r.sessions.Each(ctx, func(st *session.State) error {
		if !st.CatalogLoaded {
			return nil
		}
		_, err := r.Refresh(ctx, st)
		return err
	})
}

// Refresh 刷新单个会话,返回应用的库存记录数
func (r *StockRefresher) Refresh(ctx context.Context, st *session.State) (int, error) {
	entries, err := r.loader.Fetch(ctx, st.PriceList.Name)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if st.Index.Get(e.ItemCode) == nil {
			continue
		}
		st.Index.ApplyStockUpdate(catalog.StockUpdate{
			ItemCode: e.ItemCode,
			Qty:      e.StockQty,
			Shortage: e.Shortage,
		})
		n++
	}
	metrics.IncStockUpdate("refresh", n)
	return n, nil
}
