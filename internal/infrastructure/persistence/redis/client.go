package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/infrastructure/config"
)

// 门店上电时Redis可能晚于收银服务就绪,启动时按退避重试几次
const (
	connectAttempts = 3
	connectBackoff  = time.Second
)

// NewClient 创建会话快照使用的Redis客户端
// 流程:
// 1. 按配置创建连接池
// 2. Ping探活,每次最多等待DialTimeout,失败后按退避重试
// 3. 全部失败时关闭连接池并返回最后一次错误
func NewClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	rc := cfg.Redis
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr(),
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = ping(ctx, client, rc.DialTimeout); err == nil {
			log.Info("redis connected", zap.String("addr", rc.Addr()), zap.Int("db", rc.DB))
			return client, nil
		}
		log.Warn("redis ping failed",
			zap.String("addr", rc.Addr()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff * time.Duration(attempt)):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("Redis连接失败(%s): %w", rc.Addr(), err)
}

func ping(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.Ping(ctx).Err()
}
