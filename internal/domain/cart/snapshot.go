package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// Snapshot 会话快照(按访客会话token保存)
// 只保存原始字段,金额、折扣等派生值恢复时重新计算
type Snapshot struct {
	Token     string         `json:"token"`
	PriceList string         `json:"price_list"`
	PromoCode string         `json:"promo_code,omitempty"`
	Lines     []LineSnapshot `json:"lines"`
	SavedAt   time.Time      `json:"saved_at"`
}

// LineSnapshot 购物车行的原始字段
type LineSnapshot struct {
	ID             string                  `json:"id"`
	ItemCode       string                  `json:"item_code"`
	ItemName       string                  `json:"item_name"`
	Qty            int                     `json:"qty"`
	BaseRate       decimal.Decimal         `json:"base_rate"`
	ExtraRate      decimal.Decimal         `json:"extra_rate"`
	Notes          string                  `json:"notes,omitempty"`
	Options        pricing.SelectedOptions `json:"options,omitempty"`
	KitchenStation string                  `json:"kitchen_station,omitempty"`
	ItemGroup      string                  `json:"item_group,omitempty"`
}

// SnapshotStore 快照存储(Redis实现)
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Load 不存在时返回(nil, nil)
	Load(ctx context.Context, token string) (*Snapshot, error)
	Delete(ctx context.Context, token string) error
}

// Snapshot 导出全部行
func (l *Ledger) Snapshot() []LineSnapshot {
	out := make([]LineSnapshot, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, LineSnapshot{
			ID:             line.ID.String(),
			ItemCode:       line.ItemCode,
			ItemName:       line.ItemName,
			Qty:            line.Qty,
			BaseRate:       line.BaseRate,
			ExtraRate:      line.ExtraRate,
			Notes:          line.Notes,
			Options:        line.Options.Clone(),
			KitchenStation: line.KitchenStation,
			ItemGroup:      line.ItemGroup,
		})
	}
	return out
}

// Restore 从快照重建购物车(不需要目录数据)
// 1. 数量<1或缺少商品编码的行丢弃
// 2. 负数价格按0处理
// 3. 规格签名、单价、金额全部重新计算,不信任快照里的派生值
// 4. 内容相同的行合并
func Restore(lines []LineSnapshot) *Ledger {
	l := NewLedger()
	for _, s := range lines {
		if s.ItemCode == "" || s.Qty < 1 {
			continue
		}

		signature := s.Options.Signature()
		if existing := l.find(s.ItemCode, s.Notes, signature); existing != nil {
			existing.Qty += s.Qty
			existing.recompute()
			continue
		}

		id, err := uuid.Parse(s.ID)
		if err != nil {
			id = uuid.New()
		}
		line := &Line{
			ID:             id,
			ItemCode:       s.ItemCode,
			ItemName:       s.ItemName,
			Qty:            s.Qty,
			BaseRate:       nonNegative(s.BaseRate),
			ExtraRate:      nonNegative(s.ExtraRate),
			Notes:          s.Notes,
			Options:        s.Options.Clone(),
			Signature:      signature,
			KitchenStation: s.KitchenStation,
			ItemGroup:      s.ItemGroup,
		}
		line.recompute()
		l.lines = append(l.lines, line)
	}
	return l
}

func (l *Ledger) find(itemCode, notes, signature string) *Line {
	for _, line := range l.lines {
		if line.matches(itemCode, notes, signature) {
			return line
		}
	}
	return nil
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
