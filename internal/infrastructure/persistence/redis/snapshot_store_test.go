package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

func setupStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotStore(client, 30*time.Minute), mr
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	snap := &cart.Snapshot{
		Token:     "guest-1",
		PriceList: "Member",
		PromoCode: "HEMAT10",
		Lines: []cart.LineSnapshot{{
			ID:        "5f1d7a52-6c0e-4c1a-9a55-0b1b2b3c4d5e",
			ItemCode:  "TEA-L",
			ItemName:  "奶茶 大杯",
			Qty:       2,
			BaseRate:  decimal.NewFromInt(15000),
			ExtraRate: decimal.NewFromInt(3000),
			Notes:     "少冰",
			Options: pricing.SelectedOptions{
				pricing.GroupTopping: {{Value: "boba", AdditionalPrice: decimal.NewFromInt(3000)}},
			},
		}},
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, snap))

	assert.True(t, mr.Exists("poscart:session:guest-1"), "key格式")
	assert.Equal(t, 30*time.Minute, mr.TTL("poscart:session:guest-1"), "保存时设置TTL")

	got, err := store.Load(ctx, "guest-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Member", got.PriceList)
	assert.Equal(t, "HEMAT10", got.PromoCode)
	require.Len(t, got.Lines, 1)
	line := got.Lines[0]
	assert.Equal(t, 2, line.Qty)
	assert.True(t, line.BaseRate.Equal(decimal.NewFromInt(15000)))
	assert.True(t, line.ExtraRate.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "少冰", line.Notes)
	require.Len(t, line.Options[pricing.GroupTopping], 1)
	assert.Equal(t, "boba", line.Options[pricing.GroupTopping][0].Value)
	assert.True(t, got.SavedAt.Equal(snap.SavedAt))
}

func TestSnapshotStore_Missing(t *testing.T) {
	store, _ := setupStore(t)

	got, err := store.Load(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got, "不存在时返回nil")
}

// TestSnapshotStore_Corrupted 损坏的快照视为不存在并被清理
func TestSnapshotStore_Corrupted(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set("poscart:session:bad", "{not json"))

	got, err := store.Load(context.Background(), "bad")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("poscart:session:bad"), "损坏的快照已删除")
}

func TestSnapshotStore_Delete(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &cart.Snapshot{Token: "guest-2"}))
	require.NoError(t, store.Delete(ctx, "guest-2"))
	assert.False(t, mr.Exists("poscart:session:guest-2"))

	assert.NoError(t, store.Delete(ctx, "guest-2"), "重复删除不报错")
}

func TestSnapshotStore_RequiresToken(t *testing.T) {
	store, _ := setupStore(t)

	err := store.Save(context.Background(), &cart.Snapshot{})
	assert.ErrorIs(t, err, apperrors.ErrSessionRequired)
}

// TestSnapshotStore_RedisDown 连接失败返回Redis错误
func TestSnapshotStore_RedisDown(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	_, err := store.Load(context.Background(), "guest-3")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRedisError))
}
