// Package mq 基于RabbitMQ的消息订阅
//
// 门店ERP在库存变化时向Topic Exchange发布事件(routing key如 stock.updated),
// 本服务声明自己的持久化队列并绑定关心的routing key,收到事件后更新各会话的售罄状态。
//
// 可靠性:
// - 手动确认(AutoAck=false),处理成功才Ack
// - 处理失败Nack并重新入队;消息格式错误等永久失败直接丢弃(不重新入队,避免毒消息循环)
package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/pkg/metrics"
)

// ErrPermanent 永久失败(重试也不会成功),消息被丢弃而不是重新入队
// handler用 fmt.Errorf("...: %w", mq.ErrPermanent) 包装
var ErrPermanent = errors.New("mq: permanent failure")

// Handler 消息处理函数
type Handler func(ctx context.Context, routingKey string, body []byte) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	URL          string
	Exchange     string
	ExchangeType string // direct/topic/fanout
	Queue        string
	RoutingKeys  []string // topic支持通配符: * 一个单词, # 零个或多个单词
	Prefetch     int
}

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	cfg     ConsumerConfig
	logger  *zap.Logger
}

// NewConsumer 连接RabbitMQ并声明Exchange、Queue、Binding
func NewConsumer(cfg ConsumerConfig, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeTopic
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	// 1. 连接
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	// 2. 创建Channel
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	// 3. 声明Exchange(持久化,与ERP侧声明保持一致)
	if err := channel.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	// 4. 声明Queue(持久化,不自动删除)
	q, err := channel.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	// 5. 绑定
	for _, key := range cfg.RoutingKeys {
		if err := channel.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("绑定Queue失败[%s]: %w", key, err)
		}
	}

	logger.Info("mq consumer ready",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", q.Name),
		zap.Strings("routing_keys", cfg.RoutingKeys),
	)

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   q.Name,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Consume 阻塞消费,直到ctx取消或Channel关闭
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("mq consumer stopped", zap.String("queue", c.queue))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("消息Channel已关闭")
			}
			Dispatch(ctx, c.logger, c.queue, msg, handler)
		}
	}
}

// Dispatch 处理单条消息并确认
// 成功Ack;ErrPermanent丢弃;其他错误重新入队
func Dispatch(ctx context.Context, logger *zap.Logger, queue string, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, msg.RoutingKey, msg.Body)
	metrics.ObserveMessage(queue, err, time.Since(start))

	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Warn("mq ack failed", zap.Error(ackErr))
		}
	case errors.Is(err, ErrPermanent):
		logger.Warn("mq message dropped",
			zap.String("routing_key", msg.RoutingKey),
			zap.ByteString("body", msg.Body),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
	default:
		logger.Error("mq message failed, requeue",
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		_ = msg.Nack(false, true)
	}
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
