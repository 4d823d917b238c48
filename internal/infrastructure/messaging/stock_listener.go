// Package messaging 消息订阅处理(库存推送)
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/infrastructure/backend"
	"github.com/xiebiao/poscart/pkg/mq"
)

// RoutingKeyStockUpdated 库存变化事件
const RoutingKeyStockUpdated = "stock.updated"

// stockRecord 单个商品的库存
type stockRecord struct {
	ItemCode  string       `json:"item_code"`
	Warehouse string       `json:"warehouse"`
	ActualQty *float64     `json:"actual_qty"`
	Shortage  backend.Flag `json:"is_stock_shortage"`
}

// stockEvent 库存事件,单条或批量(items)
type stockEvent struct {
	stockRecord
	Items []stockRecord `json:"items"`
}

// StockListener 库存推送处理
// 只处理本终端仓库的记录;消息格式错误按永久失败丢弃
type StockListener struct {
	apply     *appcatalog.ApplyStockUpdatesUseCase
	warehouse string
	logger    *zap.Logger
}

// NewStockListener 创建库存推送处理器
func NewStockListener(apply *appcatalog.ApplyStockUpdatesUseCase, warehouse string, logger *zap.Logger) *StockListener {
	return &StockListener{apply: apply, warehouse: warehouse, logger: logger}
}

// Handle 实现mq.Handler
func (l *StockListener) Handle(ctx context.Context, routingKey string, body []byte) error {
	if routingKey != RoutingKeyStockUpdated {
		l.logger.Debug("ignore message", zap.String("routing_key", routingKey))
		return nil
	}

	updates, err := l.decode(body)
	if err != nil {
		return fmt.Errorf("decode stock event: %v: %w", err, mq.ErrPermanent)
	}
	if len(updates) == 0 {
		return nil
	}

	touched := l.apply.Execute(ctx, updates)
	l.logger.Debug("stock event applied",
		zap.Int("updates", len(updates)),
		zap.Int("touched", touched),
	)
	return nil
}

// decode 解析事件,过滤其他仓库的记录
func (l *StockListener) decode(body []byte) ([]catalog.StockUpdate, error) {
	var ev stockEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}

	records := ev.Items
	if ev.ItemCode != "" {
		records = append(records, ev.stockRecord)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty stock event")
	}

	updates := make([]catalog.StockUpdate, 0, len(records))
	for _, r := range records {
		if r.ItemCode == "" {
			return nil, fmt.Errorf("stock record without item_code")
		}
		if r.Warehouse != "" && l.warehouse != "" && r.Warehouse != l.warehouse {
			continue
		}
		updates = append(updates, catalog.StockUpdate{
			ItemCode: r.ItemCode,
			Qty:      r.ActualQty,
			Shortage: bool(r.Shortage),
		})
	}
	return updates, nil
}
