package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// Line 购物车行
// 设计说明:
// 1. 一行代表 商品+规格+备注 的一种组合及其数量
// 2. BaseRate/ExtraRate是加购时由价格解析器给出的拆分值,改数量时只用这两个值重算
// 3. Amount永远等于(BaseRate+ExtraRate)×Qty,任何修改都经过recompute
type Line struct {
	ID        uuid.UUID
	ItemCode  string
	ItemName  string
	Qty       int
	BaseRate  decimal.Decimal
	ExtraRate decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Notes     string
	Options   pricing.SelectedOptions
	Signature string

	// 出品路由信息(厨房单分发用,本服务只透传)
	KitchenStation string
	ItemGroup      string
}

// recompute 重新计算派生字段
func (l *Line) recompute() {
	l.Rate = l.BaseRate.Add(l.ExtraRate)
	l.Amount = l.Rate.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// matches 是否可以与新加购合并
// 商品编码、备注(空也算一种取值)、规格签名三者完全一致
func (l *Line) matches(itemCode, notes, signature string) bool {
	return l.ItemCode == itemCode && l.Notes == notes && l.Signature == signature
}

// Clone 深拷贝(对外返回,防止调用方绕过Ledger修改)
func (l *Line) Clone() *Line {
	cp := *l
	cp.Options = l.Options.Clone()
	return &cp
}

// Pricer 行单价来源
// 购物车从不自己计算价格,一律通过Pricer(pricing.Resolver)取价
type Pricer interface {
	LineRate(e *catalog.Entry, opts pricing.SelectedOptions) pricing.LineRate
}
