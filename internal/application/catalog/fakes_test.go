package catalog

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// fakeGateway 内存目录服务
// records按价格表返回,每次调用都返回新对象(与真实远程一致)
type fakeGateway struct {
	mu       sync.Mutex
	records  map[string][]catalog.Entry
	variants map[string][]catalog.Entry
	fail     bool
	calls    []string
}

func (g *fakeGateway) ListItemsWithStock(_ context.Context, _ string, priceList string, _ int) ([]*catalog.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "items:"+priceList)
	if g.fail {
		return nil, apperrors.ErrRemoteError
	}
	return copyEntries(g.records[priceList]), nil
}

func (g *fakeGateway) ListVariantsForTemplate(_ context.Context, templateID, _ string) (*catalog.VariantSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "variants:"+templateID)
	if g.fail {
		return nil, apperrors.ErrRemoteError
	}
	return &catalog.VariantSet{
		Variants:   copyEntries(g.variants[templateID]),
		Attributes: []catalog.Attribute{{Name: "Size", Values: []string{"L", "M"}}},
	}, nil
}

func copyEntries(src []catalog.Entry) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(src))
	for i := range src {
		out = append(out, src[i].Clone())
	}
	return out
}

// fakeCache 内存目录缓存
type fakeCache struct {
	data map[string][]*catalog.Entry
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]*catalog.Entry)}
}

func (c *fakeCache) Replace(_ context.Context, warehouse, priceList string, entries []*catalog.Entry) error {
	cp := make([]*catalog.Entry, 0, len(entries))
	for _, e := range entries {
		cp = append(cp, &catalog.Entry{
			ItemCode: e.ItemCode, ItemName: e.ItemName, ItemGroup: e.ItemGroup,
			HasVariants: e.HasVariants, VariantOf: e.VariantOf,
			Rate: e.Rate, PriceListRate: e.PriceListRate, HasExplicitRate: e.HasExplicitRate,
			StockQty: e.StockQty, Shortage: e.Shortage,
		})
	}
	c.data[warehouse+"/"+priceList] = cp
	return nil
}

func (c *fakeCache) Load(_ context.Context, warehouse, priceList string) ([]*catalog.Entry, error) {
	return copyEntriesPtr(c.data[warehouse+"/"+priceList]), nil
}

func copyEntriesPtr(src []*catalog.Entry) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(src))
	for _, e := range src {
		out = append(out, e.Clone())
	}
	return out
}

// fakeOptions 内存规格服务
type fakeOptions struct {
	options map[string]*pricing.ItemOptions
	fail    bool
}

func (o *fakeOptions) GetItemOptions(_ context.Context, itemCode string) (*pricing.ItemOptions, error) {
	if o.fail {
		return nil, apperrors.ErrRemoteError
	}
	if opts, ok := o.options[itemCode]; ok {
		return opts, nil
	}
	return &pricing.ItemOptions{ItemCode: itemCode}, nil
}

// memStore 内存快照存储
type memStore struct {
	mu    sync.Mutex
	snaps map[string]*cart.Snapshot
}

func (s *memStore) Save(_ context.Context, snap *cart.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snaps == nil {
		s.snaps = make(map[string]*cart.Snapshot)
	}
	s.snaps[snap.Token] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, token string) (*cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snaps[token], nil
}

func (s *memStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, token)
	return nil
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// standardCatalog 一个模板(两个变体)、一个有专属价的商品、一个普通商品
func standardCatalog() []catalog.Entry {
	return []catalog.Entry{
		{ItemCode: "TEA", ItemName: "Es Teh", ItemGroup: "Drinks", HasVariants: true},
		{ItemCode: "TEA-L", ItemName: "Es Teh L", ItemGroup: "Drinks", VariantOf: "TEA", Rate: d(12000), StockQty: catalog.Qty(0)},
		{ItemCode: "TEA-M", ItemName: "Es Teh M", ItemGroup: "Drinks", VariantOf: "TEA", Rate: d(10000), StockQty: catalog.Qty(4)},
		{ItemCode: "RICE", ItemName: "Nasi Goreng", ItemGroup: "Food", Rate: d(20000), StockQty: catalog.Qty(10)},
		{
			ItemCode: "SOUP", ItemName: "Soto", ItemGroup: "Food", Rate: d(15000),
			PriceListRate: decimal.NewNullDecimal(d(14000)), HasExplicitRate: true,
		},
	}
}
