package pricelist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/pkg/metrics"
	"github.com/xiebiao/poscart/pkg/saga"
	"github.com/xiebiao/poscart/pkg/tracing"
)

// SwitchPriceListUseCase 切换价格表
// 设计说明:
// 1. 切换是一个Saga: 拉取新目录 → 替换目录索引 → 补齐购物车变体 → 重算购物车 → 激活
// 2. 任何一步失败(含超时、购物车商品在新目录中找不到),按逆序恢复原目录索引、原购物车行和原价格表,不留下部分调整
// 3. 整个过程持有会话锁,库存定时刷新不会读到切换中的状态
// 4. 切换成功后已校验的优惠码需要按新金额重新校验
type SwitchPriceListUseCase struct {
	sessions *session.Manager
	provider *Provider
	loader   *appcatalog.Loader
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSwitchPriceListUseCase 创建价格表切换用例
func NewSwitchPriceListUseCase(
	sessions *session.Manager,
	provider *Provider,
	loader *appcatalog.Loader,
	timeout time.Duration,
	logger *zap.Logger,
) *SwitchPriceListUseCase {
	return &SwitchPriceListUseCase{
		sessions: sessions,
		provider: provider,
		loader:   loader,
		timeout:  timeout,
		logger:   logger,
	}
}

// SwitchPriceListRequest 切换请求
type SwitchPriceListRequest struct {
	Token string
	Name  string
}

// Execute 执行切换
func (uc *SwitchPriceListUseCase) Execute(ctx context.Context, req SwitchPriceListRequest) (*ListPriceListsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "pricelist", "SwitchPriceList")
	defer span.End()

	var resp *ListPriceListsResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.provider.Ensure(ctx, st)

		target, ok := st.PriceLists.Find(req.Name)
		if !ok {
			return pricing.ErrPriceListNotFound.WithField("price_list")
		}
		if target.Name != st.PriceList.Name || !st.CatalogLoaded {
			if err := uc.switchTo(ctx, st, target); err != nil {
				metrics.IncPriceListSwitch("failed")
				return pricing.ErrSwitchFailed.WithErr(err)
			}
			metrics.IncPriceListSwitch("success")
		}

		resp = newListResponse(st)
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (uc *SwitchPriceListUseCase) switchTo(ctx context.Context, st *session.State, target pricing.PriceList) error {
	var (
		entries    []*catalog.Entry
		prevIndex  = st.Index
		prevLoaded = st.CatalogLoaded
		prevLines  = st.Ledger.Snapshot()
		prevList   = st.PriceList
	)

	s := saga.NewSaga("switch_price_list", uc.timeout, uc.logger)

	s.AddStep("fetch_catalog", func(ctx context.Context) error {
		var err error
		entries, err = uc.loader.Fetch(ctx, target.Name)
		return err
	}, nil)

	s.AddStep("swap_index", func(ctx context.Context) error {
		st.Index = appcatalog.BuildIndex(entries, target.Adjustment)
		st.CatalogLoaded = true
		return nil
	}, func(ctx context.Context) error {
		st.Index = prevIndex
		st.CatalogLoaded = prevLoaded
		return nil
	})

	// 购物车里的变体可能不在目录主列表中,按原索引找到模板后补拉变体
	s.AddStep("fetch_cart_variants", func(ctx context.Context) error {
		return uc.fetchMissingVariants(ctx, st, prevIndex, target)
	}, nil)

	// 任何一行在新目录中找不到都放弃切换,避免购物车里混用两个价格表的价格
	s.AddStep("reprice_cart", func(ctx context.Context) error {
		resolver := pricing.NewResolver(target)
		missing := st.Ledger.Reprice(func(line *cart.Line) (pricing.LineRate, bool) {
			e := st.Index.Get(line.ItemCode)
			if e == nil {
				return pricing.LineRate{}, false
			}
			return resolver.LineRate(e, line.Options), true
		})
		if len(missing) > 0 {
			return catalog.ErrItemNotFound.WithErr(
				fmt.Errorf("cart items missing from price list %s: %s", target.Name, strings.Join(missing, ",")))
		}
		return nil
	}, func(ctx context.Context) error {
		st.Ledger = cart.Restore(prevLines)
		return nil
	})

	s.AddStep("activate", func(ctx context.Context) error {
		st.PriceList = target
		if st.Promo != nil {
			// 金额已变化,下次结算时重新校验
			st.Promo.Fingerprint = ""
		}
		return nil
	}, func(ctx context.Context) error {
		st.PriceList = prevList
		return nil
	})

	if err := s.Execute(ctx); err != nil {
		uc.logger.Warn("switch price list failed",
			zap.String("token", st.Token),
			zap.String("from", prevList.Name),
			zap.String("to", target.Name),
			zap.Error(err),
		)
		return err
	}

	uc.loader.Store(ctx, target.Name, entries)
	uc.logger.Info("price list switched",
		zap.String("token", st.Token),
		zap.String("from", prevList.Name),
		zap.String("to", target.Name),
	)
	return nil
}

func (uc *SwitchPriceListUseCase) fetchMissingVariants(ctx context.Context, st *session.State, prevIndex *catalog.Index, target pricing.PriceList) error {
	fetched := make(map[string]struct{})
	for _, line := range st.Ledger.Lines() {
		if st.Index.Get(line.ItemCode) != nil {
			continue
		}
		old := prevIndex.Get(line.ItemCode)
		if old == nil || !old.IsVariant() {
			continue
		}
		template := st.Index.Get(old.TemplateRef())
		if template == nil {
			template = st.Index.TemplateOf(old)
		}
		if template == nil {
			continue
		}
		if _, ok := fetched[template.ItemCode]; ok {
			continue
		}
		fetched[template.ItemCode] = struct{}{}

		set, err := uc.loader.Variants(ctx, template.ItemCode, target.Name)
		if err != nil {
			return err
		}
		appcatalog.AttachVariants(st.Index, template, set.Variants, target.Adjustment)
	}
	return nil
}
