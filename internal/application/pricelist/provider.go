package pricelist

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// 非阻塞提示
const (
	NoticePriceListsCached  = "价格表服务暂不可用,使用最近一次同步的价格表"
	NoticePriceListsMissing = "价格表服务暂不可用,按默认价格显示"
	NoticePriceListReset    = "原价格表已不可用,已切换到默认价格表"
)

// Provider 价格表提供者
// 设计说明:
// 1. 会话第一次需要价格表时远程拉取终端可用的价格表,成功后写入本地缓存
// 2. 远程失败时使用本地缓存;缓存也没有时保持无价格表(出厂价),下次访问重试
// 3. 会话已选的价格表仍然可用时沿用,否则切到默认价格表
type Provider struct {
	gateway    pricing.Gateway
	repo       pricing.PriceListRepository
	posProfile string
	logger     *zap.Logger
}

// NewProvider 创建价格表提供者
func NewProvider(gateway pricing.Gateway, repo pricing.PriceListRepository, posProfile string, logger *zap.Logger) *Provider {
	return &Provider{
		gateway:    gateway,
		repo:       repo,
		posProfile: posProfile,
		logger:     logger,
	}
}

// Ensure 确保会话已加载价格表
func (p *Provider) Ensure(ctx context.Context, st *session.State) {
	if st.PriceLists != nil {
		return
	}

	set, err := p.gateway.ListAllowedPriceLists(ctx, p.posProfile)
	if err != nil {
		metrics.IncFallback("price_lists")
		p.logger.Warn("fetch price lists failed, using cache",
			zap.String("pos_profile", p.posProfile),
			zap.Error(err),
		)
		set = p.loadCache(ctx)
		if set == nil || len(set.Lists) == 0 {
			st.Notice(NoticePriceListsMissing)
			return
		}
		st.Notice(NoticePriceListsCached)
	} else if err := p.repo.Save(ctx, p.posProfile, set); err != nil {
		p.logger.Warn("store price lists failed", zap.Error(err))
	}

	st.PriceLists = set
	p.selectList(st)
}

// selectList 沿用会话已选的价格表,不可用时切到默认
func (p *Provider) selectList(st *session.State) {
	if pl, ok := st.PriceLists.Find(st.PriceList.Name); ok {
		st.PriceList = pl
		return
	}
	pl, ok := st.PriceLists.DefaultList()
	if !ok {
		return
	}
	if st.PriceList.Name != "" {
		st.Notice(NoticePriceListReset)
	}
	st.PriceList = pl
}

func (p *Provider) loadCache(ctx context.Context) *pricing.PriceListSet {
	set, err := p.repo.Load(ctx, p.posProfile)
	if err != nil {
		p.logger.Warn("load price list cache failed", zap.Error(err))
		return nil
	}
	return set
}
