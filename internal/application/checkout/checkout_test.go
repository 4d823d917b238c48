package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// fakeValidator 内存优惠码服务
type fakeValidator struct {
	codes    map[string]discount.PromoResult
	fail     bool
	requests []discount.PromoRequest
}

func (v *fakeValidator) ValidatePromoCode(_ context.Context, req discount.PromoRequest) (*discount.PromoResult, error) {
	v.requests = append(v.requests, req)
	if v.fail {
		return nil, apperrors.ErrRemoteOpen
	}
	res, ok := v.codes[req.Code]
	if !ok {
		return nil, discount.ErrPromoInvalid
	}
	return &res, nil
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

type fixture struct {
	store     *memStore
	validator *fakeValidator
	sessions  *session.Manager
	quote     *QuoteUseCase
	apply     *ApplyPromoUseCase
	remove    *RemovePromoUseCase
	token     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: &memStore{},
		validator: &fakeValidator{codes: map[string]discount.PromoResult{
			"FLAT15": {Code: "FLAT15", Kind: discount.KindFixed, Magnitude: d(15000), Label: "Hemat 15rb"},
			"TEN":    {Code: "TEN", Kind: discount.KindPercent, Magnitude: d(10)},
		}},
	}
	f.wire()

	token, err := f.sessions.Create(context.Background(), func(st *session.State) error {
		st.PriceList = pricing.PriceList{Name: "Standard"}
		st.Index = appcatalog.BuildIndex([]*catalog.Entry{
			{ItemCode: "A", ItemName: "Ayam Bakar", Rate: d(20000)},
			{ItemCode: "B", ItemName: "Bakso", Rate: d(15000)},
		}, decimal.Zero)
		st.CatalogLoaded = true
		return nil
	})
	require.NoError(t, err)
	f.token = token
	return f
}

func (f *fixture) wire() {
	f.sessions = session.NewManager(f.store, zap.NewNop())
	calc := NewCalculator(
		f.validator,
		discount.NewArbiter(discount.Rule{MinQty: 5, Percent: d(10)}),
		decimal.RequireFromString("0.11"),
		zap.NewNop(),
	)
	f.quote = NewQuoteUseCase(f.sessions, calc)
	f.apply = NewApplyPromoUseCase(f.sessions, calc)
	f.remove = NewRemovePromoUseCase(f.sessions, calc)
}

func (f *fixture) add(t *testing.T, code string, n int) {
	t.Helper()
	require.NoError(t, f.sessions.With(context.Background(), f.token, func(st *session.State) error {
		for i := 0; i < n; i++ {
			if _, err := st.Ledger.AddLine(st.Index.Get(code), nil, "", st.Resolver()); err != nil {
				return err
			}
		}
		return nil
	}))
}

// fillCart 小计100000,共6件
func (f *fixture) fillCart(t *testing.T) {
	f.add(t, "A", 2)
	f.add(t, "B", 4)
}

// TestQuote_AutoDiscount 满6件自动折扣,无优惠码 → 99900
func TestQuote_AutoDiscount(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	q, err := f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.True(t, q.Subtotal.Equal(d(100000)))
	assert.True(t, q.Tax.Equal(d(11000)))
	assert.True(t, q.Gross.Equal(d(111000)))
	assert.Equal(t, "auto", q.Discount.Source)
	assert.True(t, q.Discount.Amount.Equal(d(11100)))
	assert.True(t, q.Total.Equal(d(99900)))
	assert.Empty(t, f.validator.requests, "没有优惠码时不调用远程")
}

// TestApplyPromo_FixedBeatsAuto 固定金额15000大于自动折扣11100 → 96000
func TestApplyPromo_FixedBeatsAuto(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	q, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: " flat15 "})
	require.NoError(t, err)
	assert.Equal(t, "promo", q.Discount.Source)
	assert.True(t, q.Discount.Amount.Equal(d(15000)))
	assert.Equal(t, "Hemat 15rb", q.Discount.Label)
	assert.True(t, q.Total.Equal(d(96000)))
	assert.Equal(t, "FLAT15", q.PromoCode)
	assert.Equal(t, PromoStatusApplied, q.PromoStatus)

	require.Len(t, f.validator.requests, 1)
	req := f.validator.requests[0]
	assert.Equal(t, "FLAT15", req.Code)
	assert.Equal(t, "Standard", req.PriceList)
	assert.Equal(t, 6, req.TotalQty)
	assert.Len(t, req.Items, 2)

	// 购物车未变化,结算不重复校验
	_, err = f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Len(t, f.validator.requests, 1)
}

// TestApplyPromo_TieGoesToPromo 比例码与自动折扣相等时优惠码优先
func TestApplyPromo_TieGoesToPromo(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	q, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "TEN"})
	require.NoError(t, err)
	assert.Equal(t, "promo", q.Discount.Source)
	assert.True(t, q.Discount.Amount.Equal(d(11100)))
	assert.True(t, q.Discount.Percent.Equal(d(10)))
	assert.True(t, q.Total.Equal(d(99900)))
}

func TestApplyPromo_Failures(t *testing.T) {
	t.Run("空优惠码", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "  "})
		assert.ErrorIs(t, err, discount.ErrPromoEmpty)
	})

	t.Run("无效优惠码按无优惠码结算", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t)

		q, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "NOPE"})
		require.NoError(t, err)
		assert.Equal(t, "auto", q.Discount.Source)
		assert.Empty(t, q.PromoCode)
		assert.Equal(t, PromoStatusInvalid, q.PromoStatus)
	})

	t.Run("远程不可用时稍后重试", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t)
		f.validator.fail = true

		q, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "FLAT15"})
		require.NoError(t, err)
		assert.Equal(t, "auto", q.Discount.Source)
		assert.Equal(t, "FLAT15", q.PromoCode, "保留为待校验")
		assert.Equal(t, PromoStatusUnchecked, q.PromoStatus)

		f.validator.fail = false
		q, err = f.quote.Execute(context.Background(), f.token)
		require.NoError(t, err)
		assert.Equal(t, "promo", q.Discount.Source)
		assert.True(t, q.Total.Equal(d(96000)))
	})
}

// TestQuote_RevalidatesAfterCartChange 购物车变化后优惠码重新校验
func TestQuote_RevalidatesAfterCartChange(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "FLAT15"})
	require.NoError(t, err)

	f.add(t, "A", 1)
	q, err := f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	require.Len(t, f.validator.requests, 2)
	assert.Equal(t, 7, f.validator.requests[1].TotalQty)
	assert.Equal(t, "promo", q.Discount.Source)

	// 重新校验时码已失效 → 回到自动折扣
	delete(f.validator.codes, "FLAT15")
	f.add(t, "B", 1)
	q, err = f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Equal(t, "auto", q.Discount.Source)
	assert.Equal(t, PromoStatusInvalid, q.PromoStatus)
	assert.Empty(t, q.PromoCode)
}

// TestApplyPromo_EmptyCart 空购物车先记下优惠码,加购后再校验
func TestApplyPromo_EmptyCart(t *testing.T) {
	f := newFixture(t)

	q, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "FLAT15"})
	require.NoError(t, err)
	assert.Equal(t, PromoStatusPending, q.PromoStatus)
	assert.Equal(t, "none", q.Discount.Source)
	assert.True(t, q.Total.IsZero())
	assert.Empty(t, f.validator.requests)

	f.fillCart(t)
	q, err = f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Len(t, f.validator.requests, 1)
	assert.True(t, q.Total.Equal(d(96000)))
}

func TestRemovePromo(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	_, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "FLAT15"})
	require.NoError(t, err)

	q, err := f.remove.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Equal(t, "auto", q.Discount.Source)
	assert.Empty(t, q.PromoCode)
	assert.True(t, q.Total.Equal(d(99900)))
}

// TestQuote_RestoredSession 恢复的会话按快照里的优惠码重新校验
func TestQuote_RestoredSession(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	_, err := f.apply.Execute(context.Background(), ApplyPromoRequest{Token: f.token, Code: "FLAT15"})
	require.NoError(t, err)

	f.wire()
	q, err := f.quote.Execute(context.Background(), f.token)
	require.NoError(t, err)
	assert.Len(t, f.validator.requests, 2, "恢复后重新校验")
	assert.True(t, q.Subtotal.Equal(d(100000)))
	assert.True(t, q.Total.Equal(d(96000)))
}
