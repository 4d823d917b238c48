package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

type fakeCatalog struct {
	items    []catalog.Entry
	variants map[string][]catalog.Entry
}

func (g *fakeCatalog) ListItemsWithStock(context.Context, string, string, int) ([]*catalog.Entry, error) {
	return clone(g.items), nil
}

func (g *fakeCatalog) ListVariantsForTemplate(_ context.Context, templateID, _ string) (*catalog.VariantSet, error) {
	return &catalog.VariantSet{Variants: clone(g.variants[templateID])}, nil
}

func clone(src []catalog.Entry) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(src))
	for i := range src {
		out = append(out, src[i].Clone())
	}
	return out
}

type nopCache struct{}

func (nopCache) Replace(context.Context, string, string, []*catalog.Entry) error { return nil }
func (nopCache) Load(context.Context, string, string) ([]*catalog.Entry, error) { return nil, nil }

type fakePricing struct{}

func (fakePricing) ListAllowedPriceLists(context.Context, string) (*pricing.PriceListSet, error) {
	return &pricing.PriceListSet{
		Lists: []pricing.PriceList{
			{Name: "Standard"},
			{Name: "Member", Adjustment: d(-2000)},
		},
		Default: "Member",
	}, nil
}

type nopRepo struct{}

func (nopRepo) Save(context.Context, string, *pricing.PriceListSet) error { return nil }
func (nopRepo) Load(context.Context, string) (*pricing.PriceListSet, error) {
	return &pricing.PriceListSet{}, nil
}

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

// menu 会员价表下: RICE 18000, SOUP 专属价14000, TEA-M 8000, TEA-L 售罄
func menu() []catalog.Entry {
	return []catalog.Entry{
		{ItemCode: "TEA", ItemName: "Es Teh", ItemGroup: "Drinks", HasVariants: true},
		{ItemCode: "TEA-L", ItemName: "Es Teh L", VariantOf: "TEA", Rate: d(12000), StockQty: catalog.Qty(0)},
		{ItemCode: "TEA-M", ItemName: "Es Teh M", VariantOf: "TEA", Rate: d(10000), StockQty: catalog.Qty(4)},
		{ItemCode: "RICE", ItemName: "Nasi Goreng", ItemGroup: "Food", Rate: d(20000), KitchenStation: "kitchen"},
		{ItemCode: "SOUP", ItemName: "Soto", Rate: d(15000), PriceListRate: decimal.NewNullDecimal(d(14000)), HasExplicitRate: true},
	}
}

func teaOptions() *pricing.ItemOptions {
	return &pricing.ItemOptions{
		ItemCode: "TEA",
		Groups: []pricing.OptionGroup{
			{Name: pricing.GroupVariant, Kind: pricing.KindRequired, Choices: []pricing.OptionChoice{
				{Value: "M", LinkedItem: "TEA-M"},
				{Value: "L", LinkedItem: "TEA-L"},
				{Value: "XL", LinkedItem: "TEA-XL"},
			}},
			{Name: pricing.GroupTopping, Kind: pricing.KindMulti, Choices: []pricing.OptionChoice{
				{Value: "boba", Label: "Boba", AdditionalPrice: d(3000)},
				{Value: "jelly", Label: "Jelly", AdditionalPrice: d(2000)},
			}},
		},
	}
}
