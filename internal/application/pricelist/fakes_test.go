package pricelist

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
	records      map[string][]catalog.Entry
	variants     map[string][]catalog.Entry
	failItems    bool
	failVariants bool
}

func (g *fakeCatalog) ListItemsWithStock(_ context.Context, _ string, priceList string, _ int) ([]*catalog.Entry, error) {
	if g.failItems {
		return nil, apperrors.ErrRemoteError
	}
	return clone(g.records[priceList]), nil
}

func (g *fakeCatalog) ListVariantsForTemplate(_ context.Context, templateID, _ string) (*catalog.VariantSet, error) {
	if g.failVariants {
		return nil, apperrors.ErrRemoteError
	}
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

type fakePricing struct {
	set  *pricing.PriceListSet
	fail bool
}

func (p *fakePricing) ListAllowedPriceLists(context.Context, string) (*pricing.PriceListSet, error) {
	if p.fail {
		return nil, apperrors.ErrRemoteOpen
	}
	return p.set, nil
}

type memRepo struct {
	sets map[string]*pricing.PriceListSet
}

func (r *memRepo) Save(_ context.Context, posProfile string, set *pricing.PriceListSet) error {
	if r.sets == nil {
		r.sets = make(map[string]*pricing.PriceListSet)
	}
	r.sets[posProfile] = set
	return nil
}

func (r *memRepo) Load(_ context.Context, posProfile string) (*pricing.PriceListSet, error) {
	if set, ok := r.sets[posProfile]; ok {
		return set, nil
	}
	return &pricing.PriceListSet{}, nil
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

func priceLists() *pricing.PriceListSet {
	return &pricing.PriceListSet{
		Lists: []pricing.PriceList{
			{Name: "Standard", Currency: "IDR"},
			{Name: "Member", Label: "会员价", Currency: "IDR", Adjustment: d(-2000)},
		},
		Default: "Member",
	}
}

func menu() []catalog.Entry {
	return []catalog.Entry{
		{ItemCode: "TEA", ItemName: "Es Teh", HasVariants: true},
		{ItemCode: "TEA-M", VariantOf: "TEA", Rate: d(10000)},
		{ItemCode: "RICE", ItemName: "Nasi Goreng", Rate: d(20000)},
		{ItemCode: "SOUP", ItemName: "Soto", Rate: d(15000), PriceListRate: decimal.NewNullDecimal(d(14000)), HasExplicitRate: true},
	}
}
