package discount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Source 折扣来源
type Source string

const (
	SourceNone  Source = "none"
	SourceAuto  Source = "auto"
	SourcePromo Source = "promo"
)

// 金额保留两位小数
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Rule 自动满件折扣规则
type Rule struct {
	MinQty  int
	Percent decimal.Decimal
}

// DefaultRule 满5件打9折
var DefaultRule = Rule{MinQty: 5, Percent: decimal.NewFromInt(10)}

// Summary 购物车汇总(仲裁只需要这两个值)
type Summary struct {
	Subtotal decimal.Decimal
	TotalQty int
}

// Decision 折扣决策及结算金额
// 每次查询合计时重新计算,不单独持久化
type Decision struct {
	Source      Source
	Amount      decimal.Decimal
	Percent     decimal.Decimal // 比例类折扣的百分比,固定金额为0
	Label       string
	Description string

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Gross    decimal.Decimal
	Total    decimal.Decimal
}

// Arbiter 折扣仲裁
type Arbiter struct {
	Rule Rule
}

// NewArbiter 创建仲裁器,规则不合法时使用默认规则
func NewArbiter(rule Rule) *Arbiter {
	if rule.MinQty <= 0 || !rule.Percent.IsPositive() {
		rule = DefaultRule
	}
	return &Arbiter{Rule: rule}
}

// Evaluate 使用默认规则仲裁
func Evaluate(sum Summary, taxRate decimal.Decimal, promo *PromoResult) Decision {
	return NewArbiter(DefaultRule).Evaluate(sum, taxRate, promo)
}

// Evaluate 在自动折扣与优惠码之间选择
// 步骤:
// 1. tax = subtotal × taxRate(保留两位小数),gross = subtotal + tax
// 2. 件数达到MinQty且gross>0 → 自动折扣 = gross × Percent%
// 3. 有优惠码且gross>0 → 比例码按gross计算,固定码取面额
// 4. 两者都限制在[0, gross]
// 5. 优惠码>0且不小于自动折扣 → 优惠码胜出(相等时优惠码优先)
//    否则自动折扣>0 → 自动折扣;否则无折扣
// 6. total = max(0, gross - 折扣)
func (a *Arbiter) Evaluate(sum Summary, taxRate decimal.Decimal, promo *PromoResult) Decision {
	subtotal := sum.Subtotal
	tax := subtotal.Mul(taxRate).Round(moneyPlaces)
	gross := subtotal.Add(tax)

	dec := Decision{
		Source:   SourceNone,
		Amount:   decimal.Zero,
		Percent:  decimal.Zero,
		Subtotal: subtotal,
		Tax:      tax,
		Gross:    gross,
		Total:    nonNegative(gross),
	}
	if !gross.IsPositive() {
		return dec
	}

	autoAmount := decimal.Zero
	if sum.TotalQty >= a.Rule.MinQty {
		autoAmount = clamp(gross.Mul(a.Rule.Percent).Div(hundred).Round(moneyPlaces), gross)
	}

	promoAmount := decimal.Zero
	if promo != nil {
		promoAmount = clamp(promoValue(promo, gross), gross)
	}

	switch {
	case promoAmount.IsPositive() && promoAmount.GreaterThanOrEqual(autoAmount):
		dec.Source = SourcePromo
		dec.Amount = promoAmount
		if promo.Kind == KindPercent {
			dec.Percent = promo.Magnitude
		}
		dec.Label = promoLabel(promo)
		dec.Description = promo.Description
	case autoAmount.IsPositive():
		dec.Source = SourceAuto
		dec.Amount = autoAmount
		dec.Percent = a.Rule.Percent
		dec.Label = fmt.Sprintf("满%d件优惠%s%%", a.Rule.MinQty, a.Rule.Percent.String())
		dec.Description = fmt.Sprintf("购买%d件及以上自动优惠%s%%", a.Rule.MinQty, a.Rule.Percent.String())
	}

	dec.Total = nonNegative(gross.Sub(dec.Amount))
	return dec
}

func promoValue(p *PromoResult, gross decimal.Decimal) decimal.Decimal {
	switch p.Kind {
	case KindPercent:
		return gross.Mul(p.Magnitude).Div(hundred).Round(moneyPlaces)
	case KindFixed:
		return p.Magnitude
	default:
		return decimal.Zero
	}
}

func promoLabel(p *PromoResult) string {
	if p.Label != "" {
		return p.Label
	}
	return p.Code
}

// clamp 限制在[0, upper]
func clamp(v, upper decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(upper) {
		return upper
	}
	return v
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
