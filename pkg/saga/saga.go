// Package saga 带补偿的多步骤事务
//
// 核心思想:
// 1. 把一次业务操作拆成若干步骤,每个步骤有对应的补偿操作
// 2. 某一步失败时,按逆序执行已完成步骤的补偿,把状态恢复到执行前
//
// 本服务用它实现价格表切换: 拉取新目录 → 替换目录索引 → 重算购物车 → 激活价格表,
// 任何一步失败都恢复原价格表、原目录价格和原购物车行。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/poscart/pkg/metrics"
)

// Step Saga中的一个步骤
// Action和Compensate都可以为nil(只读步骤无需补偿)
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 一次Saga执行(不可复用)
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// ErrCompensationFailed 补偿本身失败,状态可能不一致
var ErrCompensationFailed = errors.New("saga: compensation failed")

// NewSaga 创建Saga
//
//	s := saga.NewSaga("switch_price_list", 10*time.Second, logger)
//	s.AddStep("拉取目录", fetch, nil)
//	s.AddStep("替换目录", swap, restore)
//	err := s.Execute(ctx)
func NewSaga(name string, timeout time.Duration, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		name:    name,
		timeout: timeout,
		logger:  logger.With(zap.String("saga", name)),
	}
}

// AddStep 追加步骤(按添加顺序执行,逆序补偿)
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Execute 执行全部步骤
// 1. 超时或某一步失败都会触发补偿
// 2. 补偿使用独立的context,不受原context超时影响
// 3. 返回的错误包装了失败步骤的原始错误;补偿也失败时同时包装ErrCompensationFailed
func (s *Saga) Execute(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveSaga(s.name, err, time.Since(start))
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.rollback(fmt.Errorf("saga[%s]超时: %w", s.name, ctxErr))
		}

		if step.Action != nil {
			if actErr := step.Action(ctx); actErr != nil {
				return s.rollback(fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, actErr))
			}
		}
		s.executed = append(s.executed, step)
	}

	s.logger.Debug("saga completed", zap.Int("steps", len(s.steps)))
	return nil
}

func (s *Saga) rollback(cause error) error {
	s.logger.Warn("saga failed, compensating", zap.Error(cause))
	if failed := s.compensate(context.Background()); len(failed) > 0 {
		return fmt.Errorf("%w: %w (steps %v)", cause, ErrCompensationFailed, failed)
	}
	return cause
}

// compensate 逆序补偿,某个补偿失败也继续执行其余补偿
func (s *Saga) compensate(ctx context.Context) []string {
	var failed []string
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		metrics.IncSagaCompensation()
		if err := step.Compensate(ctx); err != nil {
			failed = append(failed, step.Name)
			s.logger.Error("saga compensation failed", zap.String("step", step.Name), zap.Error(err))
		}
	}
	s.executed = nil
	return failed
}
