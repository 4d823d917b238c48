package redis

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/poscart/internal/domain/cart"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// keyPrefix 购物车快照key前缀
const keyPrefix = "poscart:session:"

// SnapshotStore 购物车快照存储
// 设计说明：
// 1. Key设计：poscart:session:{token}，value为JSON编码的快照
// 2. 每次保存都刷新TTL，长时间无操作的会话自然过期
// 3. 快照只是建议性数据，读取失败时调用方按空购物车处理
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

var _ cart.SnapshotStore = (*SnapshotStore)(nil)

func snapshotKey(token string) string {
	return keyPrefix + token
}

// Save 保存快照
func (s *SnapshotStore) Save(ctx context.Context, snap *cart.Snapshot) error {
	if snap == nil || snap.Token == "" {
		return apperrors.ErrSessionRequired
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Wrap(err, "编码购物车快照失败")
	}

	if err := s.client.Set(ctx, snapshotKey(snap.Token), data, s.ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}
	return nil
}

// Load 读取快照，不存在时返回(nil, nil)
func (s *SnapshotStore) Load(ctx context.Context, token string) (*cart.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrRedisError.WithErr(err)
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// 损坏的快照直接丢弃
		_ = s.client.Del(ctx, snapshotKey(token)).Err()
		return nil, nil
	}
	return &snap, nil
}

// Delete 删除快照
func (s *SnapshotStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, snapshotKey(token)).Err(); err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}
	return nil
}
