package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/internal/infrastructure/messaging"
	"github.com/xiebiao/poscart/pkg/metrics"
	"github.com/xiebiao/poscart/pkg/mq"
)

// shutdownTimeout 优雅关闭等待进行中请求的最长时间
const shutdownTimeout = 10 * time.Second

// sweepInterval 过期会话清理周期
const sweepInterval = time.Minute

// App 进程内全部长期运行的组件
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	engine    *gin.Engine
	sessions  *session.Manager
	refresher *appcatalog.StockRefresher
	listener  *messaging.StockListener
	consumer  mq.ConsumerConfig
}

func newApp(
	cfg *config.Config,
	logger *zap.Logger,
	engine *gin.Engine,
	sessions *session.Manager,
	refresher *appcatalog.StockRefresher,
	listener *messaging.StockListener,
	consumer mq.ConsumerConfig,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		sessions:  sessions,
		refresher: refresher,
		listener:  listener,
		consumer:  consumer,
	}
}

// Run 启动全部组件,ctx取消后优雅关闭
// 组件:
// 1. HTTP API(收银终端)
// 2. gRPC健康检查(供负载均衡/编排系统探测)
// 3. 定时库存刷新
// 4. 过期会话清理
// 5. 库存推送订阅(mq.enabled时)
// 任一组件异常退出都会取消其余组件
// gRPC端口在启动任何goroutine之前监听,失败时直接返回,不留下孤立的HTTP服务
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("监听gRPC端口失败: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// 1. HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		a.logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http服务异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// 2. gRPC健康检查
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	g.Go(func() error {
		a.logger.Info("grpc health server started", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	// 3. 库存刷新
	g.Go(func() error {
		a.refresher.Run(ctx)
		return nil
	})

	// 4. 会话清理
	g.Go(func() error {
		a.sweep(ctx)
		return nil
	})

	// 5. 库存推送
	if a.cfg.MQ.Enabled {
		g.Go(func() error {
			return a.consume(ctx)
		})
	}

	return g.Wait()
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Sweep(a.cfg.Terminal.SessionTTL); n > 0 {
				a.logger.Info("expired sessions swept", zap.Int("count", n))
			}
			metrics.SetActiveSessions(a.sessions.Len())
		}
	}
}

// consume 订阅库存推送
// 连接失败只记录日志,库存由定时刷新兜底
func (a *App) consume(ctx context.Context) error {
	consumer, err := mq.NewConsumer(a.consumer, a.logger)
	if err != nil {
		a.logger.Warn("stock consumer disabled", zap.Error(err))
		return nil
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			a.logger.Warn("close stock consumer failed", zap.Error(err))
		}
	}()

	if err := consumer.Consume(ctx, a.listener.Handle); err != nil && ctx.Err() == nil {
		a.logger.Error("stock consumer stopped", zap.Error(err))
	}
	return nil
}
