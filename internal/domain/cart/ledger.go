package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// Ledger 购物车(有序的行集合)
// 非并发安全,由会话锁保证单写者
type Ledger struct {
	lines []*Line
}

// NewLedger 创建空购物车
func NewLedger() *Ledger {
	return &Ledger{}
}

// AddLine 加购
// 步骤:
// 1. 通过pricer解析基础价与规格加价
// 2. 查找 商品编码+备注+规格签名 完全一致的行,找到则数量+1
// 3. 否则追加数量为1的新行
// 模板商品不能直接加购(需先选规格变体)
func (l *Ledger) AddLine(e *catalog.Entry, opts pricing.SelectedOptions, notes string, pricer Pricer) (*Line, error) {
	if e == nil {
		return nil, catalog.ErrItemNotFound
	}
	if e.IsTemplate() {
		return nil, catalog.ErrTemplateItem
	}

	rate := pricer.LineRate(e, opts)
	signature := opts.Signature()

	if line := l.find(e.ItemCode, notes, signature); line != nil {
		line.Qty++
		line.recompute()
		return line.Clone(), nil
	}

	line := &Line{
		ID:             uuid.New(),
		ItemCode:       e.ItemCode,
		ItemName:       e.Label(),
		Qty:            1,
		BaseRate:       rate.Base,
		ExtraRate:      rate.Extra,
		Notes:          notes,
		Options:        opts.Clone(),
		Signature:      signature,
		KitchenStation: e.KitchenStation,
		ItemGroup:      e.ItemGroup,
	}
	line.recompute()
	l.lines = append(l.lines, line)
	return line.Clone(), nil
}

// SetQuantity 设置数量
// qty<1时删除该行;否则按已保存的基础价/加价拆分重算金额
// 返回nil表示该行已被删除
func (l *Ledger) SetQuantity(index, qty int) (*Line, error) {
	line, err := l.at(index)
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		l.remove(index)
		return nil, nil
	}
	line.Qty = qty
	line.recompute()
	return line.Clone(), nil
}

// ChangeQuantity 数量增减(终端的 +/- 按钮)
// 数量为1时再减一会删除该行,不会留下数量为0的行
func (l *Ledger) ChangeQuantity(index, delta int) (*Line, error) {
	line, err := l.at(index)
	if err != nil {
		return nil, err
	}
	return l.SetQuantity(index, line.Qty+delta)
}

// SetNotes 修改备注
func (l *Ledger) SetNotes(index int, notes string) (*Line, error) {
	line, err := l.at(index)
	if err != nil {
		return nil, err
	}
	line.Notes = notes
	return line.Clone(), nil
}

// RemoveLine 删除行
func (l *Ledger) RemoveLine(index int) error {
	if _, err := l.at(index); err != nil {
		return err
	}
	l.remove(index)
	return nil
}

// Clear 清空购物车
func (l *Ledger) Clear() {
	l.lines = nil
}

// Len 行数
func (l *Ledger) Len() int {
	return len(l.lines)
}

// IsEmpty 是否为空
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// Lines 返回全部行的副本
func (l *Ledger) Lines() []*Line {
	out := make([]*Line, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, line.Clone())
	}
	return out
}

// Subtotal 行金额合计
func (l *Ledger) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Amount)
	}
	return total
}

// TotalQty 商品总件数
func (l *Ledger) TotalQty() int {
	n := 0
	for _, line := range l.lines {
		n += line.Qty
	}
	return n
}

// Reprice 价格表切换后重新取价
// fn返回false表示该行商品在新目录中找不到,该行保持原价,商品编码计入返回值
// 调用方据此决定是否放弃整次切换
func (l *Ledger) Reprice(fn func(line *Line) (pricing.LineRate, bool)) []string {
	var missing []string
	for _, line := range l.lines {
		rate, ok := fn(line.Clone())
		if !ok {
			missing = append(missing, line.ItemCode)
			continue
		}
		line.BaseRate = rate.Base
		line.ExtraRate = rate.Extra
		line.recompute()
	}
	return missing
}

// Fingerprint 购物车标识(商品集合与数量)
// 优惠码校验结果绑定在该值上,值变化说明优惠码需要重新校验
// 与行顺序、备注无关
func (l *Ledger) Fingerprint() string {
	if len(l.lines) == 0 {
		return ""
	}

	qty := make(map[string]int)
	for _, line := range l.lines {
		qty[line.ItemCode+"|"+line.Signature] += line.Qty
	}
	keys := make([]string, 0, len(qty))
	for k := range qty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(qty[k]))
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

func (l *Ledger) at(index int) (*Line, error) {
	if index < 0 || index >= len(l.lines) {
		return nil, ErrLineNotFound
	}
	return l.lines[index], nil
}

func (l *Ledger) remove(index int) {
	l.lines = append(l.lines[:index], l.lines[index+1:]...)
}
