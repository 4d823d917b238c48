package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/pkg/logger"
	"github.com/xiebiao/poscart/pkg/metrics"
	"github.com/xiebiao/poscart/pkg/response"
	"github.com/xiebiao/poscart/pkg/tracing"
)

// @title        POS收银购物车API
// @version      1.0
// @description  收银终端的目录浏览、价格表切换、购物车、优惠码与结算接口
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "poscart: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	log, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = log.Sync() }()
	response.SetLogger(log)

	// 3. 追踪与指标
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("初始化追踪失败: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("shutdown tracer failed", zap.Error(err))
		}
	}()
	metrics.InitMetrics()

	// 4. 组装依赖
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer cleanup()

	log.Info("poscart starting",
		zap.Int("http_port", cfg.Server.Port),
		zap.Int("grpc_port", cfg.GRPC.Port),
		zap.String("warehouse", cfg.Terminal.Warehouse),
		zap.String("pos_profile", cfg.Terminal.POSProfile),
		zap.Bool("mq_enabled", cfg.MQ.Enabled),
	)

	// 5. 运行直到收到退出信号
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("poscart stopped")
	return nil
}
