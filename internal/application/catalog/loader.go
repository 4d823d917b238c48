package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// 非阻塞提示
const (
	NoticeCatalogCached   = "商品目录服务暂不可用,当前显示的是最近一次同步的目录"
	NoticeCatalogEmpty    = "商品目录服务暂不可用,暂无可售商品"
	NoticeVariantsCached  = "规格数据暂不可用,显示的是已缓存的规格"
	NoticeOptionsDegraded = "规格选项暂不可用"
)

// Loader 目录加载器
// 设计说明:
// 1. 远程拉取成功后整体重建会话的目录索引,并写入本地缓存
// 2. 远程失败时读取本地缓存;缓存也没有时使用空目录,两种情况都只记录提示,不返回错误
// 3. 价格解析始终使用会话当前的价格表(调用时读取,不提前捕获)
type Loader struct {
	gateway   catalog.Gateway
	cache     catalog.CacheRepository
	warehouse string
	limit     int
	logger    *zap.Logger
}

// NewLoader 创建目录加载器
func NewLoader(gateway catalog.Gateway, cache catalog.CacheRepository, warehouse string, limit int, logger *zap.Logger) *Loader {
	return &Loader{
		gateway:   gateway,
		cache:     cache,
		warehouse: warehouse,
		limit:     limit,
		logger:    logger,
	}
}

// Warehouse 目录所属仓库
func (l *Loader) Warehouse() string {
	return l.warehouse
}

// EnsureLoaded 目录未加载时加载
func (l *Loader) EnsureLoaded(ctx context.Context, st *session.State) {
	if st.CatalogLoaded {
		return
	}
	l.Load(ctx, st)
}

// Load 加载(或重新加载)会话目录
// 步骤:
// 1. 按会话当前价格表远程拉取
// 2. 失败时回退到本地缓存,并记录提示
// 3. 整体重建索引,解析价格,计算售罄
func (l *Loader) Load(ctx context.Context, st *session.State) {
	priceList := st.PriceList.Name

	entries, err := l.Fetch(ctx, priceList)
	if err != nil {
		metrics.IncFallback("catalog")
		l.logger.Warn("fetch catalog failed, using cache",
			zap.String("warehouse", l.warehouse),
			zap.String("price_list", priceList),
			zap.Error(err),
		)
		entries = l.loadCache(ctx, priceList)
		if len(entries) == 0 {
			st.Notice(NoticeCatalogEmpty)
		} else {
			st.Notice(NoticeCatalogCached)
		}
	} else {
		l.Store(ctx, priceList, entries)
	}

	st.Index = BuildIndex(entries, st.PriceList.Adjustment)
	// 空的兜底目录不算加载完成,下次访问时重试
	st.CatalogLoaded = err == nil || len(entries) > 0
	metrics.SetCatalogEntries(st.Index.Len())
}

// Fetch 只从远程拉取,不回退
func (l *Loader) Fetch(ctx context.Context, priceList string) ([]*catalog.Entry, error) {
	return l.gateway.ListItemsWithStock(ctx, l.warehouse, priceList, l.limit)
}

// Store 写入本地缓存(失败只记录日志)
func (l *Loader) Store(ctx context.Context, priceList string, entries []*catalog.Entry) {
	if err := l.cache.Replace(ctx, l.warehouse, priceList, entries); err != nil {
		l.logger.Warn("store catalog cache failed",
			zap.String("price_list", priceList),
			zap.Error(err),
		)
	}
}

func (l *Loader) loadCache(ctx context.Context, priceList string) []*catalog.Entry {
	entries, err := l.cache.Load(ctx, l.warehouse, priceList)
	if err != nil {
		l.logger.Warn("load catalog cache failed", zap.Error(err))
		return nil
	}
	return entries
}

// Variants 只从远程拉取模板变体
func (l *Loader) Variants(ctx context.Context, templateID, priceList string) (*catalog.VariantSet, error) {
	return l.gateway.ListVariantsForTemplate(ctx, templateID, priceList)
}

// FetchVariants 拉取模板变体并放入会话索引
// 远程失败时返回错误,索引保持不变
func (l *Loader) FetchVariants(ctx context.Context, st *session.State, template *catalog.Entry) (*catalog.VariantSet, error) {
	set, err := l.Variants(ctx, template.ItemCode, st.PriceList.Name)
	if err != nil {
		return nil, err
	}
	AttachVariants(st.Index, template, set.Variants, st.PriceList.Adjustment)
	return set, nil
}

// AttachVariants 把变体放入索引,解析价格并刷新售罄标记
func AttachVariants(idx *catalog.Index, template *catalog.Entry, variants []*catalog.Entry, adjustment decimal.Decimal) {
	for _, v := range variants {
		pricing.ApplyPriceList(v, adjustment)
		v.DisplayRate = v.StandardRate
	}
	idx.CacheVariants(template, variants)
	template.DisplayRate = pricing.ResolveDisplayRate(idx.VariantsFor(template))
	idx.RefreshAvailability()
}

// BuildIndex 由目录记录构建索引
// 1. 全部记录按顺序注册
// 2. 变体按所属模板分组后放入变体池
// 3. 按调整值解析价格,再计算售罄
func BuildIndex(entries []*catalog.Entry, adjustment decimal.Decimal) *catalog.Index {
	idx := catalog.NewIndex()
	for _, e := range entries {
		idx.Register(e)
	}

	var (
		order  []string
		groups = make(map[string][]*catalog.Entry)
		owners = make(map[string]*catalog.Entry)
	)
	for _, e := range idx.Entries() {
		if !e.IsVariant() || e.IsTemplate() {
			continue
		}
		t := idx.TemplateOf(e)
		if t == nil {
			continue
		}
		if _, ok := groups[t.ItemCode]; !ok {
			order = append(order, t.ItemCode)
			owners[t.ItemCode] = t
		}
		groups[t.ItemCode] = append(groups[t.ItemCode], e)
	}
	for _, code := range order {
		idx.CacheVariants(owners[code], groups[code])
	}

	pricing.Reprice(idx, adjustment)
	idx.RefreshAvailability()
	return idx
}
