package pricelist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

type fixture struct {
	catalog  *fakeCatalog
	pricing  *fakePricing
	repo     *memRepo
	sessions *session.Manager
	provider *Provider
	loader   *appcatalog.Loader
	switcher *SwitchPriceListUseCase
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		catalog: &fakeCatalog{
			records:  map[string][]catalog.Entry{"Member": menu(), "Standard": menu()},
			variants: map[string][]catalog.Entry{},
		},
		pricing:  &fakePricing{set: priceLists()},
		repo:     &memRepo{},
		sessions: session.NewManager(&memStore{}, zap.NewNop()),
	}
	f.provider = NewProvider(f.pricing, f.repo, "Kiosk", zap.NewNop())
	f.loader = appcatalog.NewLoader(f.catalog, nopCache{}, "Stores", 100, zap.NewNop())
	f.switcher = NewSwitchPriceListUseCase(f.sessions, f.provider, f.loader, time.Second, zap.NewNop())

	token, err := f.sessions.Create(context.Background(), func(st *session.State) error {
		f.provider.Ensure(context.Background(), st)
		f.loader.EnsureLoaded(context.Background(), st)
		return nil
	})
	require.NoError(t, err)
	f.token = token
	return f
}

func (f *fixture) with(t *testing.T, fn func(st *session.State)) {
	t.Helper()
	require.NoError(t, f.sessions.With(context.Background(), f.token, func(st *session.State) error {
		fn(st)
		return nil
	}))
}

func (f *fixture) add(t *testing.T, st *session.State, code string) {
	t.Helper()
	_, err := st.Ledger.AddLine(st.Index.Get(code), nil, "", st.Resolver())
	require.NoError(t, err)
}

func (f *fixture) switchTo(name string) (*ListPriceListsResponse, error) {
	return f.switcher.Execute(context.Background(), SwitchPriceListRequest{Token: f.token, Name: name})
}

func TestProvider_SelectsDefault(t *testing.T) {
	f := newFixture(t)

	f.with(t, func(st *session.State) {
		assert.Equal(t, "Member", st.PriceList.Name, "新会话使用默认价格表")
		assert.True(t, st.PriceList.Adjustment.Equal(d(-2000)))
		assert.True(t, st.Index.Get("RICE").StandardRate.Equal(d(18000)))
	})
	assert.NotNil(t, f.repo.sets["Kiosk"], "成功后写入本地缓存")
}

func TestProvider_Fallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("使用本地缓存", func(t *testing.T) {
		repo := &memRepo{}
		require.NoError(t, repo.Save(ctx, "Kiosk", priceLists()))
		p := NewProvider(&fakePricing{fail: true}, repo, "Kiosk", zap.NewNop())

		st := &session.State{}
		p.Ensure(ctx, st)
		assert.Equal(t, "Member", st.PriceList.Name)
		assert.Equal(t, []string{NoticePriceListsCached}, st.DrainNotices())
	})

	t.Run("没有任何数据", func(t *testing.T) {
		p := NewProvider(&fakePricing{fail: true}, &memRepo{}, "Kiosk", zap.NewNop())

		st := &session.State{}
		p.Ensure(ctx, st)
		assert.Nil(t, st.PriceLists, "下次访问重试")
		assert.Empty(t, st.PriceList.Name)
		assert.Equal(t, []string{NoticePriceListsMissing}, st.DrainNotices())
	})

	t.Run("恢复的价格表已不可用", func(t *testing.T) {
		p := NewProvider(&fakePricing{set: priceLists()}, &memRepo{}, "Kiosk", zap.NewNop())

		st := &session.State{PriceList: pricing.PriceList{Name: "Retired"}}
		p.Ensure(ctx, st)
		assert.Equal(t, "Member", st.PriceList.Name)
		assert.Equal(t, []string{NoticePriceListReset}, st.DrainNotices())
	})

	t.Run("恢复的价格表仍可用", func(t *testing.T) {
		p := NewProvider(&fakePricing{set: priceLists()}, &memRepo{}, "Kiosk", zap.NewNop())

		st := &session.State{PriceList: pricing.PriceList{Name: "Standard"}}
		p.Ensure(ctx, st)
		assert.Equal(t, "Standard", st.PriceList.Name)
		assert.Empty(t, st.DrainNotices())
	})
}

func TestListPriceListsUseCase(t *testing.T) {
	f := newFixture(t)
	uc := NewListPriceListsUseCase(f.sessions, f.provider)

	resp, err := uc.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Equal(t, "Member", resp.Active)
	assert.Equal(t, "Member", resp.Default)
	require.Len(t, resp.PriceLists, 2)
	assert.Equal(t, "Standard", resp.PriceLists[0].Label, "没有标签时显示名称")
	assert.Equal(t, "会员价", resp.PriceLists[1].Label)
	assert.True(t, resp.PriceLists[1].Active)
}

// TestSwitch_RoundTrip 切换A→B→A后价格完全恢复
func TestSwitch_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.with(t, func(st *session.State) {
		f.add(t, st, "RICE")
		f.add(t, st, "SOUP")
		st.Promo = &discount.PromoResult{Code: "HEMAT", Fingerprint: st.Ledger.Fingerprint()}
	})

	resp, err := f.switchTo("Standard")
	require.NoError(t, err)
	assert.Equal(t, "Standard", resp.Active)

	f.with(t, func(st *session.State) {
		lines := st.Ledger.Lines()
		assert.True(t, lines[0].BaseRate.Equal(d(20000)), "无专属价的商品按新调整值重算")
		assert.True(t, lines[1].BaseRate.Equal(d(14000)), "专属价不受调整值影响")
		assert.True(t, st.Index.Get("RICE").DisplayRate.Equal(d(20000)))
		assert.True(t, st.Promo.IsStale(st.Ledger.Fingerprint()), "切换后优惠码需要重新校验")
	})

	_, err = f.switchTo("Member")
	require.NoError(t, err)

	f.with(t, func(st *session.State) {
		lines := st.Ledger.Lines()
		assert.True(t, lines[0].BaseRate.Equal(d(18000)), "切回后价格完全恢复")
		assert.True(t, lines[0].Amount.Equal(d(18000)))
		assert.True(t, lines[1].BaseRate.Equal(d(14000)))
	})
}

func TestSwitch_UnknownList(t *testing.T) {
	f := newFixture(t)

	_, err := f.switchTo("VIP")
	assert.ErrorIs(t, err, pricing.ErrPriceListNotFound)
}

// TestSwitch_FetchFails 拉取目录失败时什么都不改变
func TestSwitch_FetchFails(t *testing.T) {
	f := newFixture(t)
	f.with(t, func(st *session.State) { f.add(t, st, "RICE") })
	f.catalog.failItems = true

	_, err := f.switchTo("Standard")
	assert.ErrorIs(t, err, pricing.ErrSwitchFailed)

	f.with(t, func(st *session.State) {
		assert.Equal(t, "Member", st.PriceList.Name)
		assert.True(t, st.Ledger.Lines()[0].BaseRate.Equal(d(18000)))
	})
}

// TestSwitch_CompensatesAfterSwap 替换索引之后的步骤失败时恢复原索引、原购物车和原价格表
func TestSwitch_CompensatesAfterSwap(t *testing.T) {
	f := newFixture(t)
	f.catalog.variants["TEA"] = []catalog.Entry{{ItemCode: "TEA-XL", VariantOf: "TEA", Rate: d(16000)}}

	var prevIndex *catalog.Index
	f.with(t, func(st *session.State) {
		appcatalog.AttachVariants(st.Index, st.Index.Get("TEA"), clone(f.catalog.variants["TEA"]), st.PriceList.Adjustment)
		f.add(t, st, "TEA-XL")
		f.add(t, st, "RICE")
		prevIndex = st.Index
	})
	f.catalog.failVariants = true

	_, err := f.switchTo("Standard")
	require.ErrorIs(t, err, pricing.ErrSwitchFailed)

	f.with(t, func(st *session.State) {
		assert.Same(t, prevIndex, st.Index, "恢复原索引")
		assert.Equal(t, "Member", st.PriceList.Name, "恢复原价格表")
		lines := st.Ledger.Lines()
		require.Len(t, lines, 2)
		assert.True(t, lines[0].BaseRate.Equal(d(14000)))
		assert.True(t, lines[1].BaseRate.Equal(d(18000)))
		assert.True(t, st.Index.Get("RICE").StandardRate.Equal(d(18000)))
	})

	// 变体服务恢复后切换成功,购物车里的变体按新价格表重算
	f.catalog.failVariants = false
	_, err = f.switchTo("Standard")
	require.NoError(t, err)

	f.with(t, func(st *session.State) {
		lines := st.Ledger.Lines()
		assert.True(t, lines[0].BaseRate.Equal(d(16000)))
		assert.True(t, lines[1].BaseRate.Equal(d(20000)))
	})
}

// TestSwitch_CartItemMissing 购物车商品在新目录中找不到时整次切换回滚
// 恢复的会话没有原索引,不在主列表中的变体无法补拉
func TestSwitch_CartItemMissing(t *testing.T) {
	f := newFixture(t)
	f.with(t, func(st *session.State) {
		f.add(t, st, "RICE")
		variant := &catalog.Entry{ItemCode: "TEA-XL", VariantOf: "TEA", Rate: d(16000), StandardRate: d(16000)}
		_, err := st.Ledger.AddLine(variant, nil, "", st.Resolver())
		require.NoError(t, err)
		// 模拟快照恢复: 索引重建后不包含该变体
		st.Index = catalog.NewIndex()
		st.CatalogLoaded = false
	})

	_, err := f.switchTo("Standard")
	require.ErrorIs(t, err, pricing.ErrSwitchFailed)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	f.with(t, func(st *session.State) {
		assert.Equal(t, "Member", st.PriceList.Name, "价格表保持不变")
		lines := st.Ledger.Lines()
		require.Len(t, lines, 2)
		assert.True(t, lines[0].BaseRate.Equal(d(18000)), "已能重算的行也恢复原价")
		assert.Equal(t, "TEA-XL", lines[1].ItemCode)
	})
}

// TestSwitch_SameList 选择当前价格表时不重复切换
func TestSwitch_SameList(t *testing.T) {
	f := newFixture(t)
	f.catalog.failItems = true

	resp, err := f.switchTo("Member")
	require.NoError(t, err, "目录已加载,无需拉取")
	assert.Equal(t, "Member", resp.Active)
}
