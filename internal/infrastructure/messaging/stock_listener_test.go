package messaging

import (
	"context"
	"errors"
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
	"github.com/xiebiao/poscart/pkg/mq"
)

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

func setup(t *testing.T) (*StockListener, *session.Manager, string) {
	t.Helper()
	sessions := session.NewManager(&memStore{}, zap.NewNop())
	token, err := sessions.Create(context.Background(), func(st *session.State) error {
		st.Index = appcatalog.BuildIndex([]*catalog.Entry{
			{ItemCode: "TEA", HasVariants: true},
			{ItemCode: "TEA-L", VariantOf: "TEA", Rate: decimal.NewFromInt(12000), StockQty: catalog.Qty(0)},
			{ItemCode: "TEA-M", VariantOf: "TEA", Rate: decimal.NewFromInt(10000), StockQty: catalog.Qty(2)},
		}, decimal.Zero)
		st.CatalogLoaded = true
		return nil
	})
	require.NoError(t, err)

	listener := NewStockListener(appcatalog.NewApplyStockUpdatesUseCase(sessions), "Stores", zap.NewNop())
	return listener, sessions, token
}

func soldOut(t *testing.T, sessions *session.Manager, token, code string) bool {
	t.Helper()
	var out bool
	require.NoError(t, sessions.With(context.Background(), token, func(st *session.State) error {
		out = st.Index.Get(code).SoldOut
		return nil
	}))
	return out
}

func TestStockListener_Handle(t *testing.T) {
	listener, sessions, token := setup(t)
	ctx := context.Background()

	require.False(t, soldOut(t, sessions, token, "TEA"))

	err := listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"item_code":"TEA-M","warehouse":"Stores","actual_qty":0}`))
	require.NoError(t, err)
	assert.True(t, soldOut(t, sessions, token, "TEA-M"))
	assert.True(t, soldOut(t, sessions, token, "TEA"), "全部变体售罄时模板售罄")

	err = listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"items":[
		{"item_code":"TEA-L","actual_qty":5,"is_stock_shortage":"0"},
		{"item_code":"TEA-M","actual_qty":5,"is_stock_shortage":1}
	]}`))
	require.NoError(t, err)
	assert.False(t, soldOut(t, sessions, token, "TEA-L"))
	assert.True(t, soldOut(t, sessions, token, "TEA-M"), "缺货标记优先")
	assert.False(t, soldOut(t, sessions, token, "TEA"))
}

func TestStockListener_Filters(t *testing.T) {
	listener, sessions, token := setup(t)
	ctx := context.Background()

	err := listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"item_code":"TEA-M","warehouse":"Other","actual_qty":0}`))
	require.NoError(t, err)
	assert.False(t, soldOut(t, sessions, token, "TEA-M"), "其他仓库的记录忽略")

	err = listener.Handle(ctx, "price.updated", []byte(`not json`))
	assert.NoError(t, err, "不关心的routing key直接确认")

	err = listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"item_code":"UNKNOWN","actual_qty":1}`))
	assert.NoError(t, err, "未知商品不算失败")
}

// TestStockListener_NumericShortage 缺货标记按与目录接口相同的规则解析,非零数字为真
func TestStockListener_NumericShortage(t *testing.T) {
	listener, sessions, token := setup(t)
	ctx := context.Background()

	err := listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"item_code":"TEA-M","actual_qty":5,"is_stock_shortage":2}`))
	require.NoError(t, err)
	assert.True(t, soldOut(t, sessions, token, "TEA-M"))

	err = listener.Handle(ctx, RoutingKeyStockUpdated, []byte(`{"item_code":"TEA-M","actual_qty":5,"is_stock_shortage":"0.0"}`))
	require.NoError(t, err)
	assert.False(t, soldOut(t, sessions, token, "TEA-M"))
}

func TestStockListener_BadPayload(t *testing.T) {
	listener, _, _ := setup(t)

	payloads := []string{
		`not json`,
		`{}`,
		`{"items":[{"actual_qty":1}]}`,
		`{"item_code":"TEA-M","is_stock_shortage":"maybe"}`,
	}
	for _, body := range payloads {
		err := listener.Handle(context.Background(), RoutingKeyStockUpdated, []byte(body))
		assert.True(t, errors.Is(err, mq.ErrPermanent), "格式错误按永久失败丢弃: %s", body)
	}
}
